package profile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML profile and returns it with the raw bytes
// KnownFields(true): typos and unused keys fail immediately
func Load(path string) (*Profile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read profile: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, data, err
	}

	return p, data, nil
}

// Parse decodes and validates profile YAML
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}

	return &p, nil
}

// LoadOrDefault loads path, or returns the default profile when path is empty
func LoadOrDefault(path string) (*Profile, error) {
	if path == "" {
		p := Default()
		return &p, nil
	}

	p, _, err := Load(path)
	return p, err
}

// Hash generates a SHA256 hash from the profile (canonical JSON)
// Structs, not maps, keep the field order and therefore the hash stable
func Hash(p *Profile) (string, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewDecisionSnapshot creates a snapshot for audit
func NewDecisionSnapshot(p *Profile, yamlData []byte) (*DecisionSnapshot, error) {
	hash, err := Hash(p)
	if err != nil {
		return nil, err
	}

	return &DecisionSnapshot{
		ProfileHash: hash,
		ProfileYAML: string(yamlData),
		ProfileID:   p.Meta.ProfileID,
		Version:     p.Meta.Version,
		CreatedAt:   time.Now(),
	}, nil
}
