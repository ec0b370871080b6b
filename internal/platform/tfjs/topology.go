package tfjs

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

type modelFile struct {
	Format          string          `json:"format"`
	ModelTopology   json.RawMessage `json:"modelTopology"`
	WeightsManifest []weightGroup   `json:"weightsManifest"`
}

type layerSpec struct {
	ClassName    string          `json:"class_name"`
	Name         string          `json:"name"`
	Config       json.RawMessage `json:"config"`
	InboundNodes json.RawMessage `json:"inbound_nodes"`
}

type layerConfig struct {
	Name                string     `json:"name"`
	Units               int        `json:"units"`
	Activation          string     `json:"activation"`
	RecurrentActivation string     `json:"recurrent_activation"`
	UseBias             *bool      `json:"use_bias"`
	InputDim            int        `json:"input_dim"`
	OutputDim           int        `json:"output_dim"`
	MaskZero            bool       `json:"mask_zero"`
	ReturnSequences     bool       `json:"return_sequences"`
	GoBackwards         bool       `json:"go_backwards"`
	Layer               *layerSpec `json:"layer"`
	MergeMode           *string    `json:"merge_mode"`
}

// parseTopology returns the ordered layer specs of a Sequential model or of a
// Functional model whose layers form a single chain.
func parseTopology(raw json.RawMessage) ([]layerSpec, error) {
	var top struct {
		ModelConfig *layerSpec      `json:"model_config"`
		ClassName   string          `json:"class_name"`
		Config      json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("invalid modelTopology: %w", err)
	}

	root := layerSpec{ClassName: top.ClassName, Config: top.Config}
	if top.ModelConfig != nil {
		root = *top.ModelConfig
	}

	layers, err := decodeLayerList(root.Config)
	if err != nil {
		return nil, err
	}

	switch root.ClassName {
	case "Sequential":
		return layers, nil
	case "Model", "Functional":
		if err := checkLinearChain(layers); err != nil {
			return nil, err
		}
		return layers, nil
	default:
		return nil, fmt.Errorf("unsupported model class %q", root.ClassName)
	}
}

// decodeLayerList accepts both {"layers": [...]} and the legacy bare array form.
func decodeLayerList(cfg json.RawMessage) ([]layerSpec, error) {
	trimmed := bytes.TrimSpace(cfg)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var layers []layerSpec
		if err := json.Unmarshal(trimmed, &layers); err != nil {
			return nil, fmt.Errorf("invalid layer list: %w", err)
		}
		return layers, nil
	}
	var obj struct {
		Layers []layerSpec `json:"layers"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("invalid model config: %w", err)
	}
	if len(obj.Layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}
	return obj.Layers, nil
}

// checkLinearChain verifies that every layer consumes exactly the previous one.
func checkLinearChain(layers []layerSpec) error {
	prev := ""
	for i, l := range layers {
		name := l.Name
		if name == "" {
			var c layerConfig
			_ = json.Unmarshal(l.Config, &c)
			name = c.Name
		}
		inbound := inboundNames(l.InboundNodes)
		if i == 0 {
			if len(inbound) != 0 {
				return fmt.Errorf("layer %s: first layer must be an input", name)
			}
		} else if len(inbound) != 1 || inbound[0] != prev {
			return fmt.Errorf("layer %s: only single-chain functional models are supported", name)
		}
		prev = name
	}
	return nil
}

// inboundNames reads the Keras 2 inbound_nodes form [[["name", 0, 0, {}], ...]].
func inboundNames(raw json.RawMessage) []string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var nodes [][][]any
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil
	}
	var names []string
	for _, node := range nodes {
		for _, in := range node {
			if len(in) > 0 {
				if s, ok := in[0].(string); ok {
					names = append(names, s)
				}
			}
		}
	}
	return names
}
