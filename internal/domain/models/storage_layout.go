package models

// StorageLayout is the solc storage layout emitted with extra_output = ["storageLayout"]
type StorageLayout struct {
	Storage []StorageVariable      `json:"storage"`
	Types   map[string]StorageType `json:"types"`
}

// StorageVariable is a single state variable placement
type StorageVariable struct {
	ASTID    int    `json:"astId"`
	Contract string `json:"contract"`
	Label    string `json:"label"`
	Offset   int    `json:"offset"`
	Slot     string `json:"slot"`
	Type     string `json:"type"`
}

// StorageType describes a type referenced from StorageVariable.Type
type StorageType struct {
	Encoding      string            `json:"encoding"`
	Label         string            `json:"label"`
	NumberOfBytes string            `json:"numberOfBytes"`
	Members       []StorageVariable `json:"members,omitempty"`
	Key           string            `json:"key,omitempty"`
	Value         string            `json:"value,omitempty"`
	Base          string            `json:"base,omitempty"`
}

// TypeLabel returns the human readable label of a type id, falling back to the id itself
func (l *StorageLayout) TypeLabel(typeID string) string {
	if l == nil {
		return typeID
	}
	if t, ok := l.Types[typeID]; ok && t.Label != "" {
		return t.Label
	}
	return typeID
}
