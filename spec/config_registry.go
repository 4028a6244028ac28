// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spec

import "github.com/zintix-labs/scriptlab/errs"

// GetScriptSettingByYAML
// 會讀取 YAML 設定、初始化各子設定並執行基本檢查後回傳
func GetScriptSettingByYAML(data []byte) (*ScriptSetting, error) {
	ss := &ScriptSetting{}
	if err := decodeYAML(data, ss); err != nil {
		return nil, errs.Wrap(err, "failed to decode yaml")
	}

	// 設定檔初始化
	if err := ss.init(); err != nil {
		return nil, errs.Wrap(err, "script setting initialized err")
	}

	return ss, nil
}

// GetScriptSettingByJSON
// 會讀取 JSON 設定、初始化各子設定並執行基本檢查後回傳
func GetScriptSettingByJSON(data []byte) (*ScriptSetting, error) {
	ss := &ScriptSetting{}
	if err := decodeJSON(data, ss); err != nil {
		return nil, errs.Wrap(err, "can not decode json byte")
	}

	// 設定檔初始化
	if err := ss.init(); err != nil {
		return nil, errs.Wrap(err, "script setting initialized err")
	}

	return ss, nil
}
