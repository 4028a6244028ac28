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

import (
	"bytes"
	"encoding/json"

	"github.com/zintix-labs/scriptlab/errs"
	"gopkg.in/yaml.v3"
)

// decodeYAML 嚴格解碼：多寫或拼錯欄位就報錯，避免實驗設定被默默忽略
func decodeYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return errs.WrapKind(err, errs.KindConfig, "spec.decoder : yaml decode failed")
	}
	return nil
}

// decodeJSON 同 decodeYAML 的 JSON 版本
func decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return errs.WrapKind(err, errs.KindConfig, "spec.decoder : json decode failed")
	}
	return nil
}
