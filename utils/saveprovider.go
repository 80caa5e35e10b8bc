package utils

// ResourceSource identifies where a parsed archive came from and lets
// a rebuilt archive be written back to the same place.
type ResourceSource interface {
	Name() string
	Size() int64
	Save(data []byte) error
}
