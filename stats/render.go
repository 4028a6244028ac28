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

package stats

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// SweepReportRender 定義輸出行為
type SweepReportRender interface {
	Write(w io.Writer, r *SweepReport) error
}

// Json渲染
type JsonSweepReportRender struct{}

func (jr *JsonSweepReportRender) Write(w io.Writer, r *SweepReport) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLSweepReportRender struct{}

func (yr *YAMLSweepReportRender) Write(w io.Writer, r *SweepReport) error {
	return forceReadableList(w, r)
}

// PlayerReportRender 逐一輸出受試者報表（除錯用）
type PlayerReportRender interface {
	Write(w io.Writer, ps []*PlayerReport) error
}

type JsonPlayerReportRender struct{}

func (jr *JsonPlayerReportRender) Write(w io.Writer, ps []*PlayerReport) error {
	enc := json.NewEncoder(w)
	for _, p := range ps {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}

	// 自頂向下調整所有 sequence node 的 style：
	// - 若該 sequence 內部「沒有子 sequence 或 mapping」，代表它是最內層的一維 => 用 flow style: [...]
	// - 否則保持預設 block（展開）
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		return

	case yaml.SequenceNode:
		nested := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				nested = true
				break
			}
		}

		for _, c := range n.Content {
			styleReadableSequences(c)
		}

		if !nested {
			n.Style = yaml.FlowStyle
		}
		return

	default:
		return
	}
}
