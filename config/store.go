package config

import (
	"fmt"
	"os"

	"github.com/idesign4u1/ShoppingListApp/store"
)

// InitStore builds the document store selected by STORE_DRIVER
// (memory, postgres or mongo). Memory is the default so the API
// runs without external services.
func InitStore() (store.Store, error) {
	driver := os.Getenv("STORE_DRIVER")
	if driver == "" {
		driver = "memory"
	}

	switch driver {
	case "memory":
		return store.NewMemory(), nil
	case "postgres":
		return store.NewPostgres(os.Getenv("DATABASE_URL"))
	case "mongo":
		return store.NewMongo(os.Getenv("MONGODB_URI"), os.Getenv("MONGO_DB"))
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}
}
