package util

// IDMap interns strings into dense int ids, keeping tag keys/values and
// street names as small integers instead of repeating strings across
// every node-based edge.
type IDMap struct {
	strToID map[string]int
	idToStr []string
}

// NewIdMap returns an empty IDMap.
func NewIdMap() IDMap {
	return IDMap{
		strToID: make(map[string]int),
		idToStr: make([]string, 0),
	}
}

// GetID returns s's id, interning it if this is the first time s is
// seen.
func (m *IDMap) GetID(s string) int {
	if id, ok := m.strToID[s]; ok {
		return id
	}
	id := len(m.idToStr)
	m.strToID[s] = id
	m.idToStr = append(m.idToStr, s)
	return id
}

// GetStr returns the string previously interned under id.
func (m *IDMap) GetStr(id int) string {
	if id < 0 || id >= len(m.idToStr) {
		return ""
	}
	return m.idToStr[id]
}

// Len reports how many distinct strings have been interned.
func (m *IDMap) Len() int {
	return len(m.idToStr)
}

// All returns the interned strings in id order, e.g. for serializing
// the prefix-summed name table (<base>.names).
func (m *IDMap) All() []string {
	return m.idToStr
}
