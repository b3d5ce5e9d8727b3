package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Compras-api/internal/application/audit"
	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/gate"
	"github.com/jhoicas/Compras-api/internal/application/ports"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
	"github.com/jhoicas/Compras-api/internal/domain/validation"
)

// SupplierUseCase casos de uso de catálogo de proveedores.
type SupplierUseCase struct {
	txRunner     ports.TxRunner
	supplierRepo repository.SupplierRepository
	veRepo       repository.ValidationErrorRepository
}

func NewSupplierUseCase(txRunner ports.TxRunner, supplierRepo repository.SupplierRepository, veRepo repository.ValidationErrorRepository) *SupplierUseCase {
	return &SupplierUseCase{txRunner: txRunner, supplierRepo: supplierRepo, veRepo: veRepo}
}

// Create da de alta un proveedor activo.
func (uc *SupplierUseCase) Create(ctx context.Context, actor ports.Actor, in dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	if vf := validation.Permission(actor.Role, validation.ActionManageCatalog); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntitySupplier, "", vf)
	}
	if vf := validation.RequiredFields(map[string]string{"name": in.Name}); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntitySupplier, "", vf)
	}

	now := time.Now()
	supplier := &entity.Supplier{
		ID:        uuid.New().String(),
		CompanyID: actor.CompanyID,
		Name:      in.Name,
		TaxID:     in.TaxID,
		Email:     in.Email,
		Phone:     in.Phone,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		if err := r.Suppliers.Create(ctx, supplier); err != nil {
			return err
		}
		return audit.Append(ctx, r.Audit, audit.Entry{
			CompanyID:  actor.CompanyID,
			EntityType: entity.AuditEntitySupplier,
			EntityID:   supplier.ID,
			Action:     "create",
			NewValue:   map[string]any{"name": supplier.Name, "tax_id": supplier.TaxID},
			Actor:      actor.UserID,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return toSupplierResponse(supplier), nil
}

// SetActive activa o desactiva un proveedor. Desactivarlo no toca las
// órdenes existentes; solo bloquea órdenes nuevas.
func (uc *SupplierUseCase) SetActive(ctx context.Context, actor ports.Actor, supplierID string, active bool) (*dto.SupplierResponse, error) {
	if vf := validation.Permission(actor.Role, validation.ActionManageCatalog); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntitySupplier, supplierID, vf)
	}
	supplier, err := uc.supplierRepo.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, domain.ErrNotFound
	}
	if supplier.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}

	prev := supplier.Active
	now := time.Now()
	supplier.Active = active
	supplier.UpdatedAt = now
	err = uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		if err := r.Suppliers.Update(ctx, supplier); err != nil {
			return err
		}
		return audit.Append(ctx, r.Audit, audit.Entry{
			CompanyID:  actor.CompanyID,
			EntityType: entity.AuditEntitySupplier,
			EntityID:   supplier.ID,
			Action:     "update",
			OldValue:   map[string]any{"active": prev},
			NewValue:   map[string]any{"active": supplier.Active},
			Actor:      actor.UserID,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return toSupplierResponse(supplier), nil
}

// GetByID devuelve un proveedor de la empresa del actor.
func (uc *SupplierUseCase) GetByID(ctx context.Context, companyID, supplierID string) (*dto.SupplierResponse, error) {
	supplier, err := uc.supplierRepo.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, domain.ErrNotFound
	}
	if supplier.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toSupplierResponse(supplier), nil
}

// List pagina los proveedores de la empresa.
func (uc *SupplierUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) ([]dto.SupplierResponse, error) {
	page.DefaultPage()
	suppliers, err := uc.supplierRepo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SupplierResponse, 0, len(suppliers))
	for _, s := range suppliers {
		out = append(out, *toSupplierResponse(s))
	}
	return out, nil
}

func toSupplierResponse(s *entity.Supplier) *dto.SupplierResponse {
	return &dto.SupplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		TaxID:     s.TaxID,
		Email:     s.Email,
		Phone:     s.Phone,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
	}
}
