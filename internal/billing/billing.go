// Package billing links organizations to a billing-customer identity
// and computes per-seat quantities for subscription upserts. The
// billing provider itself (checkout, webhooks) is an external
// collaborator reached through the CustomerCreator interface.
package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/database"
	"github.com/orghub-io/orghub/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrNotLinked            = errors.New("organization has no billing customer")
)

// CustomerParams is what the provider needs to create a customer.
type CustomerParams struct {
	OrganizationID uuid.UUID
	Name           string
	Email          string
}

// CustomerCreator creates a customer with the billing provider and
// returns its id.
type CustomerCreator interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
}

// CustomerCreatorFunc adapts a function to the CustomerCreator
// interface.
type CustomerCreatorFunc func(ctx context.Context, params CustomerParams) (string, error)

func (f CustomerCreatorFunc) CreateCustomer(ctx context.Context, params CustomerParams) (string, error) {
	return f(ctx, params)
}

// SeatUsage is the per-seat upsert payload contract consumed by the
// subscription sync job.
type SeatUsage struct {
	CustomerID string `json:"customer_id"`
	Quantity   int64  `json:"quantity"`
}

type Adapter struct {
	logger      *zap.SugaredLogger
	db          *gorm.DB
	transaction database.TransactionFunc
	creator     CustomerCreator
}

func NewAdapter(logger *zap.SugaredLogger, db *gorm.DB, creator CustomerCreator) (*Adapter, error) {
	transactionFunc, _, err := database.GetTransactionFunc(db)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		logger:      logger,
		db:          db,
		transaction: transactionFunc,
		creator:     creator,
	}, nil
}

// EnsureCustomer returns the organization's billing customer id,
// creating one with the provider on first use. The provider call runs
// outside any transaction; the linkage write is guarded so a
// concurrent caller's id wins and the duplicate is discarded.
func (a *Adapter) EnsureCustomer(ctx context.Context, orgID uuid.UUID) (string, error) {
	var org models.Organization
	if res := a.db.WithContext(ctx).First(&org, "id = ?", orgID); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return "", ErrOrganizationNotFound
		}
		return "", res.Error
	}
	if org.BillingCustomerID != "" {
		return org.BillingCustomerID, nil
	}

	customerID, err := a.creator.CreateCustomer(ctx, CustomerParams{
		OrganizationID: org.ID,
		Name:           org.Name,
		Email:          org.Email,
	})
	if err != nil {
		return "", err
	}

	err = a.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Organization{}).
			Where("id = ? AND billing_customer_id = ''", orgID).
			Update("billing_customer_id", customerID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost the race, keep the linkage already persisted
			if res := tx.First(&org, "id = ?", orgID); res.Error != nil {
				return res.Error
			}
			customerID = org.BillingCustomerID
			a.logger.Infow("discarding duplicate billing customer", "organization", orgID)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return customerID, nil
}

// SeatCount returns the number of members in the organization.
func (a *Adapter) SeatCount(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	res := a.db.WithContext(ctx).Model(&models.Member{}).
		Where("organization_id = ?", orgID).
		Count(&count)
	if res.Error != nil {
		return 0, res.Error
	}
	return count, nil
}

// SeatUsage computes the per-seat quantity payload for the linked
// customer. The organization must already be linked.
func (a *Adapter) SeatUsage(ctx context.Context, orgID uuid.UUID) (*SeatUsage, error) {
	var org models.Organization
	if res := a.db.WithContext(ctx).First(&org, "id = ?", orgID); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, res.Error
	}
	if org.BillingCustomerID == "" {
		return nil, ErrNotLinked
	}
	count, err := a.SeatCount(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &SeatUsage{
		CustomerID: org.BillingCustomerID,
		Quantity:   count,
	}, nil
}
