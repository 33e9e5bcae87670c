package persistence

import (
	"fmt"

	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// AutoMigrate creates the schema from the gorm models. It is used for SQLite
// databases; PostgreSQL deployments apply the SQL files under migrations/.
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}
	return nil
}
