package repository

import (
	"context"

	"github.com/yukikurage/agency-ops-api/internal/database"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWorkRepository is a GORM implementation of WorkRepository
type GormWorkRepository struct {
	db *gorm.DB
}

// NewWorkRepository creates a new WorkRepository
func NewWorkRepository(db *gorm.DB) WorkRepository {
	return &GormWorkRepository{db: db}
}

// Create creates a new work
func (r *GormWorkRepository) Create(ctx context.Context, work *models.Work) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(work).Error
}

// FindByID finds a work by ID with optional preloading
func (r *GormWorkRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Work, error) {
	var work models.Work
	query := r.db.WithContext(ctx)

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("id = ?", id).First(&work).Error; err != nil {
		return nil, err
	}

	return &work, nil
}

// List retrieves works with filtering and pagination
func (r *GormWorkRepository) List(ctx context.Context, filter WorkFilter) ([]models.Work, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Work{})

	if filter.Status != nil {
		query = query.Where("works.status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("works.client_id = ?", *filter.ClientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("works.created_at DESC")
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	var works []models.Work
	if err := listQuery.Preload("Client").Find(&works).Error; err != nil {
		return nil, 0, err
	}
	return works, total, nil
}

// Update writes the work and shifts the remaining budget by the change in total budget
func (r *GormWorkRepository) Update(ctx context.Context, work *models.Work, previousTotal *float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations, "remaining_budget").Save(work).Error; err != nil {
			return err
		}

		scoped := tx.Model(&models.Work{}).Where("id = ?", work.ID)
		switch {
		case work.TotalBudget == nil:
			return scoped.Update("remaining_budget", nil).Error
		case previousTotal == nil:
			spent, err := sumExpenses(tx, work.ID)
			if err != nil {
				return err
			}
			return scoped.Update("remaining_budget", *work.TotalBudget-spent).Error
		case *work.TotalBudget != *previousTotal:
			delta := *work.TotalBudget - *previousTotal
			return scoped.Update("remaining_budget",
				gorm.Expr("COALESCE(remaining_budget, ?) + ?", *previousTotal, delta)).Error
		}
		return nil
	})
}

// Delete deletes a work together with its resources, expenses and documents
func (r *GormWorkRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("work_id = ?", id).Delete(&models.WorkDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("work_id = ?", id).Delete(&models.WorkExpense{}).Error; err != nil {
			return err
		}
		if err := tx.Where("work_id = ?", id).Delete(&models.WorkResource{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.Work{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Reconcile recomputes remaining budget as total budget minus the sum of expenses
func (r *GormWorkRepository) Reconcile(ctx context.Context, id string) (*models.Work, error) {
	var work models.Work
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&work).Error; err != nil {
			return err
		}

		var remaining *float64
		if work.TotalBudget != nil {
			spent, err := sumExpenses(tx, id)
			if err != nil {
				return err
			}
			v := *work.TotalBudget - spent
			remaining = &v
		}

		if err := tx.Model(&models.Work{}).Where("id = ?", id).Update("remaining_budget", remaining).Error; err != nil {
			return err
		}
		work.RemainingBudget = remaining
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &work, nil
}

func sumExpenses(tx *gorm.DB, workID string) (float64, error) {
	var spent float64
	err := tx.Model(&models.WorkExpense{}).
		Where("work_id = ?", workID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&spent).Error
	return spent, err
}

// adjustRemaining adds delta to the remaining budget. A null remaining budget stays null.
func adjustRemaining(tx *gorm.DB, workID string, delta float64) error {
	return tx.Model(&models.Work{}).
		Where("id = ?", workID).
		Update("remaining_budget", gorm.Expr("remaining_budget + ?", delta)).Error
}

func (r *GormWorkRepository) ListResources(ctx context.Context, workID string) ([]models.WorkResource, error) {
	var resources []models.WorkResource
	err := r.db.WithContext(ctx).Where("work_id = ?", workID).Order("created_at ASC").Find(&resources).Error
	return resources, err
}

func (r *GormWorkRepository) FindResource(ctx context.Context, workID, id string) (*models.WorkResource, error) {
	var resource models.WorkResource
	if err := r.db.WithContext(ctx).Where("work_id = ? AND id = ?", workID, id).First(&resource).Error; err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *GormWorkRepository) CreateResource(ctx context.Context, resource *models.WorkResource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *GormWorkRepository) UpdateResource(ctx context.Context, resource *models.WorkResource) error {
	return r.db.WithContext(ctx).Save(resource).Error
}

// DeleteResource deletes a resource. Expenses attributed to it are kept without attribution.
func (r *GormWorkRepository) DeleteResource(ctx context.Context, workID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WorkExpense{}).
			Where("work_id = ? AND resource_id = ?", workID, id).
			Update("resource_id", nil).Error; err != nil {
			return err
		}

		res := tx.Where("work_id = ? AND id = ?", workID, id).Delete(&models.WorkResource{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormWorkRepository) ListExpenses(ctx context.Context, workID string) ([]models.WorkExpense, error) {
	var expenses []models.WorkExpense
	err := r.db.WithContext(ctx).
		Preload("Resource").
		Where("work_id = ?", workID).
		Order("date DESC").
		Find(&expenses).Error
	return expenses, err
}

func (r *GormWorkRepository) FindExpense(ctx context.Context, workID, id string) (*models.WorkExpense, error) {
	var expense models.WorkExpense
	if err := r.db.WithContext(ctx).Where("work_id = ? AND id = ?", workID, id).First(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

// CreateExpense inserts the expense and decrements the work's remaining budget
func (r *GormWorkRepository) CreateExpense(ctx context.Context, expense *models.WorkExpense) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").Where("id = ?", expense.WorkID).First(&models.Work{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("Resource").Create(expense).Error; err != nil {
			return err
		}
		return adjustRemaining(tx, expense.WorkID, -expense.Amount)
	})
}

// UpdateExpense saves the expense and applies the amount difference to the remaining budget
func (r *GormWorkRepository) UpdateExpense(ctx context.Context, expense *models.WorkExpense, previousAmount float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Resource").Save(expense).Error; err != nil {
			return err
		}
		if delta := previousAmount - expense.Amount; delta != 0 {
			return adjustRemaining(tx, expense.WorkID, delta)
		}
		return nil
	})
}

// DeleteExpense deletes the expense and gives its amount back to the remaining budget
func (r *GormWorkRepository) DeleteExpense(ctx context.Context, workID, id string) (*models.WorkExpense, error) {
	var expense models.WorkExpense
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("work_id = ? AND id = ?", workID, id).First(&expense).Error; err != nil {
			return err
		}
		if err := tx.Delete(&expense).Error; err != nil {
			return err
		}
		return adjustRemaining(tx, workID, expense.Amount)
	})
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *GormWorkRepository) ListDocuments(ctx context.Context, workID string) ([]models.WorkDocument, error) {
	var documents []models.WorkDocument
	err := r.db.WithContext(ctx).Where("work_id = ?", workID).Order("created_at DESC").Find(&documents).Error
	return documents, err
}

func (r *GormWorkRepository) FindDocument(ctx context.Context, workID, id string) (*models.WorkDocument, error) {
	var document models.WorkDocument
	if err := r.db.WithContext(ctx).Where("work_id = ? AND id = ?", workID, id).First(&document).Error; err != nil {
		return nil, err
	}
	return &document, nil
}

func (r *GormWorkRepository) CreateDocument(ctx context.Context, document *models.WorkDocument) error {
	return r.db.WithContext(ctx).Create(document).Error
}

func (r *GormWorkRepository) UpdateDocument(ctx context.Context, document *models.WorkDocument) error {
	return r.db.WithContext(ctx).Save(document).Error
}

func (r *GormWorkRepository) DeleteDocument(ctx context.Context, workID, id string) error {
	res := r.db.WithContext(ctx).Where("work_id = ? AND id = ?", workID, id).Delete(&models.WorkDocument{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
