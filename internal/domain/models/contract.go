package models

import (
	"encoding/json"
)

// BytecodeObject represents bytecode information in a Foundry artifact
type BytecodeObject struct {
	Object              string                      `json:"object"`
	SourceMap           string                      `json:"sourceMap"`
	LinkReferences      map[string]any              `json:"linkReferences"`
	ImmutableReferences map[string][]ImmutableRange `json:"immutableReferences,omitempty"`
}

// ImmutableRange is a byte range in deployed code patched by the constructor
type ImmutableRange struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// Artifact represents a Foundry compilation artifact
type Artifact struct {
	ABI               json.RawMessage   `json:"abi"`
	Bytecode          BytecodeObject    `json:"bytecode"`
	DeployedBytecode  BytecodeObject    `json:"deployedBytecode"`
	MethodIdentifiers map[string]string `json:"methodIdentifiers"`
	StorageLayout     *StorageLayout    `json:"storageLayout,omitempty"`
	RawMetadata       string            `json:"rawMetadata"`
	Metadata          ArtifactMetadata  `json:"metadata"`
}

// ArtifactMetadata represents the metadata section of a Foundry artifact
type ArtifactMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Language string `json:"language"`
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}
