package di

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Graph 注入器的依赖图快照，仅用于展示和导出，不做任何校验
type Graph struct {
	Injector string      `json:"injector" yaml:"injector"`
	Nodes    []GraphNode `json:"nodes" yaml:"nodes"`
	Edges    []GraphEdge `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// GraphNode 一个已注册的类型
type GraphNode struct {
	Type     string   `json:"type" yaml:"type"`
	Lifetime string   `json:"lifetime" yaml:"lifetime"`
	Tokens   []string `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Strategy string   `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Instance bool     `json:"instance,omitempty" yaml:"instance,omitempty"`
}

// GraphEdge 一个构造参数槽位指向的依赖
type GraphEdge struct {
	From  string `json:"from" yaml:"from"`
	Index int    `json:"index" yaml:"index"`
	Kind  string `json:"kind" yaml:"kind"`
	To    string `json:"to" yaml:"to"`
}

// Graph 根据本节点的注册表和共享元数据构建依赖图
func (i *Injector) Graph() Graph {
	i.mu.RLock()
	regs := i.registry.ordered()
	i.mu.RUnlock()

	g := Graph{Injector: i.String()}
	for _, reg := range regs {
		node := GraphNode{
			Type:     reg.Type.Name(),
			Lifetime: reg.Lifetime.String(),
			Strategy: reg.Strategy,
			Instance: reg.HasInstance,
		}
		for _, token := range reg.Tokens {
			node.Tokens = append(node.Tokens, token.String())
		}
		g.Nodes = append(g.Nodes, node)

		for idx := 0; idx < reg.Type.Arity(); idx++ {
			if edge, ok := i.edge(reg.Type, idx); ok {
				g.Edges = append(g.Edges, edge)
			}
		}
	}
	return g
}

func (i *Injector) edge(owner *Type, idx int) (GraphEdge, bool) {
	edge := GraphEdge{From: owner.Name(), Index: idx}

	b, ok := i.tokens.Binding(owner, idx)
	if !ok {
		declared := owner.Param(idx)
		if declared == nil {
			return edge, false
		}
		edge.Kind = KindType.String()
		edge.To = declared.Name()
		return edge, true
	}

	edge.Kind = b.Kind.String()
	switch {
	case b.Kind == KindStrategy:
		edge.To = b.Strategy
	case b.Token != nil:
		edge.To = b.Token.String()
	default:
		edge.To = b.Target.Name()
	}
	return edge, true
}

// WriteYAML 以 YAML 格式写出依赖图
func (g Graph) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("di: failed to encode graph: %w", err)
	}
	return enc.Close()
}

// WriteJSON 以缩进的 JSON 格式写出依赖图
func (g Graph) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("di: failed to encode graph: %w", err)
	}
	return nil
}
