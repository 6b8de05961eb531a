package timeline

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Notifications is the ordered notification list of a clip. It encodes each
// element as a mapping carrying a "kind" key next to the variant's fields.
type Notifications []Notification

const kindKey = "kind"

// MarshalJSON implements json.Marshaler.
func (ns Notifications) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(ns))
	for i, n := range ns {
		b, err := marshalNotificationJSON(n)
		if err != nil {
			return nil, fmt.Errorf("notification[%d]: %w", i, err)
		}
		out = append(out, b)
	}
	return json.Marshal(out)
}

func marshalNotificationJSON(n Notification) ([]byte, error) {
	if u, ok := n.(*UnknownNotification); ok {
		fields := make(map[string]any, len(u.Fields)+1)
		for k, v := range u.Fields {
			fields[k] = v
		}
		fields[kindKey] = u.KindName
		return json.Marshal(fields)
	}

	body, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("kind %q must encode as an object: %w", n.Kind(), err)
	}
	kind, err := json.Marshal(n.Kind())
	if err != nil {
		return nil, err
	}
	fields[kindKey] = kind
	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (ns *Notifications) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Notifications, 0, len(raws))
	for i, raw := range raws {
		n, err := decodeNotificationJSON(raw)
		if err != nil {
			return fmt.Errorf("notification[%d]: %w", i, err)
		}
		out = append(out, n)
	}
	*ns = out
	return nil
}

func decodeNotificationJSON(raw json.RawMessage) (Notification, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	if head.Kind == "" {
		return nil, fmt.Errorf("missing %q", kindKey)
	}

	n := newNotification(head.Kind)
	if n == nil {
		fields := map[string]any{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		delete(fields, kindKey)
		return &UnknownNotification{KindName: head.Kind, Fields: fields}, nil
	}
	if err := json.Unmarshal(raw, n); err != nil {
		return nil, fmt.Errorf("kind %q: %w", head.Kind, err)
	}
	return n, nil
}

// MarshalYAML implements yaml.Marshaler.
func (ns Notifications) MarshalYAML() (any, error) {
	out := make([]*yaml.Node, 0, len(ns))
	for i, n := range ns {
		node, err := marshalNotificationYAML(n)
		if err != nil {
			return nil, fmt.Errorf("notification[%d]: %w", i, err)
		}
		out = append(out, node)
	}
	return out, nil
}

func marshalNotificationYAML(n Notification) (*yaml.Node, error) {
	var body any = n
	if u, ok := n.(*UnknownNotification); ok {
		body = u.Fields
		if body == nil {
			body = map[string]any{}
		}
	}

	node := &yaml.Node{}
	if err := node.Encode(body); err != nil {
		return nil, err
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("kind %q must encode as a mapping", n.Kind())
	}
	node.Style = 0
	kind := []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: kindKey},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Kind()},
	}
	node.Content = append(kind, node.Content...)
	return node, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (ns *Notifications) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: notifications must be a sequence", node.Line)
	}
	out := make(Notifications, 0, len(node.Content))
	for i, item := range node.Content {
		n, err := decodeNotificationYAML(item)
		if err != nil {
			return fmt.Errorf("notification[%d] (line %d): %w", i, item.Line, err)
		}
		out = append(out, n)
	}
	*ns = out
	return nil
}

func decodeNotificationYAML(item *yaml.Node) (Notification, error) {
	var head struct {
		Kind string `yaml:"kind"`
	}
	if err := item.Decode(&head); err != nil {
		return nil, err
	}
	if head.Kind == "" {
		return nil, fmt.Errorf("missing %q", kindKey)
	}

	n := newNotification(head.Kind)
	if n == nil {
		fields := map[string]any{}
		if err := item.Decode(&fields); err != nil {
			return nil, err
		}
		delete(fields, kindKey)
		return &UnknownNotification{KindName: head.Kind, Fields: fields}, nil
	}
	if err := item.Decode(n); err != nil {
		return nil, fmt.Errorf("kind %q: %w", head.Kind, err)
	}
	return n, nil
}
