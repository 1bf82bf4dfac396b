package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/rulebook/internal/log"
)

// SaveGroups replaces the groups section of the config file.
// Comments and formatting in other sections are preserved by editing the
// yaml.Node tree rather than re-marshaling the whole Config.
func SaveGroups(configPath string, groups map[string]string) error {
	return saveSection(configPath, "groups", buildGroupsNode(groups))
}

// SaveFlag sets one feature flag in the config file, keeping other flags.
func SaveFlag(configPath, name string, enabled bool) error {
	doc, err := readDocument(configPath)
	if err != nil {
		return err
	}

	flags := lookupKey(doc, "flags")
	if flags == nil || flags.Kind != yaml.MappingNode {
		flags = &yaml.Node{Kind: yaml.MappingNode}
	}
	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(enabled)}
	setKey(flags, name, value)

	return writeDocument(configPath, setTopLevel(doc, "flags", flags))
}

func saveSection(configPath, key string, node *yaml.Node) error {
	doc, err := readDocument(configPath)
	if err != nil {
		return err
	}
	return writeDocument(configPath, setTopLevel(doc, key, node))
}

func buildGroupsNode(groups map[string]string) *yaml.Node {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	if len(keys) == 0 {
		node.Style = yaml.FlowStyle
	}
	for _, k := range keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: groups[k]},
		)
	}
	return node
}

func readDocument(configPath string) (*yaml.Node, error) {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	return &doc, nil
}

// setTopLevel sets key in the document's root mapping, creating the
// document when it is empty.
func setTopLevel(doc *yaml.Node, key string, value *yaml.Node) *yaml.Node {
	if doc.Kind == 0 {
		return &yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{{
				Kind:    yaml.MappingNode,
				Content: []*yaml.Node{{Kind: yaml.ScalarNode, Value: key}, value},
			}},
		}
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 && doc.Content[0].Kind == yaml.MappingNode {
		setKey(doc.Content[0], key, value)
	}
	return doc
}

func lookupKey(doc *yaml.Node, key string) *yaml.Node {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			return root.Content[i+1]
		}
	}
	return nil
}

func setKey(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			// Keep a trailing comment written next to the old value.
			if value.LineComment == "" {
				value.LineComment = mapping.Content[i+1].LineComment
			}
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
}

func writeDocument(configPath string, doc *yaml.Node) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	// Write atomically (write to temp, then rename)
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".rulebook.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	log.Debug(log.CatConfig, "Saved config", "path", configPath)
	return nil
}
