package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/agency-ops-api/internal/database"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"gorm.io/gorm"
)

var clientSortColumns = map[string]string{
	"created_at": "clients.created_at",
	"name":       "clients.name",
}

// GormClientRepository is a GORM implementation of ClientRepository
type GormClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &GormClientRepository{db: db}
}

// Create creates a new client
func (r *GormClientRepository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

// FindByID finds a client by ID
func (r *GormClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// List retrieves clients with filtering, sorting and pagination
func (r *GormClientRepository) List(ctx context.Context, filter ClientFilter) ([]models.Client, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Client{})

	if filter.Status != nil {
		query = query.Where("clients.status = ?", *filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("(LOWER(clients.name) LIKE ? OR LOWER(clients.email) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := clientSortColumns[filter.SortBy]
	if !ok {
		column = clientSortColumns["created_at"]
	}
	direction := " DESC"
	if filter.Ascending {
		direction = " ASC"
	}

	listQuery := query.Order(column + direction)
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	var clients []models.Client
	if err := listQuery.Find(&clients).Error; err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

// Save writes every column of the client
func (r *GormClientRepository) Save(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

// UpdateColumns writes only the given columns
func (r *GormClientRepository) UpdateColumns(ctx context.Context, id string, columns map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Updates(columns).Error
}

// Delete deletes a client. Rows referencing it keep existing with a null client_id.
func (r *GormClientRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Task{}, &models.Finance{}, &models.Work{}} {
			if err := tx.Model(model).Where("client_id = ?", id).Update("client_id", nil).Error; err != nil {
				return err
			}
		}

		res := tx.Where("id = ?", id).Delete(&models.Client{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
