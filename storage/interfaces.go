package storage

import "product-consolidator/models"

// ProductWriter is the interface any storage backend must satisfy.
type ProductWriter interface {
	Write(products []*models.MasterProduct) error
	Close() error
}

// ProductStore is a backend that can also read the persisted table back,
// used by the insight service.
type ProductStore interface {
	ProductWriter
	FetchAll() ([]*models.MasterProduct, error)
}
