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

// ProductUseCase casos de uso de catálogo de productos. El stock nunca se
// toca desde aquí: nace en cero y solo lo muta el ledger de movimientos.
type ProductUseCase struct {
	txRunner    ports.TxRunner
	productRepo repository.ProductRepository
	veRepo      repository.ValidationErrorRepository
}

func NewProductUseCase(txRunner ports.TxRunner, productRepo repository.ProductRepository, veRepo repository.ValidationErrorRepository) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner, productRepo: productRepo, veRepo: veRepo}
}

// Create da de alta un producto. El SKU es único por empresa.
func (uc *ProductUseCase) Create(ctx context.Context, actor ports.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if vf := validation.Permission(actor.Role, validation.ActionManageCatalog); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityProduct, "", vf)
	}
	if vf := validation.RequiredFields(map[string]string{"sku": in.SKU, "name": in.Name}); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityProduct, "", vf)
	}
	if vf := validation.NonNegativeCost("cost", in.Cost); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityProduct, "", vf)
	}
	existing, err := uc.productRepo.GetByCompanyAndSKU(ctx, actor.CompanyID, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		CompanyID:   actor.CompanyID,
		SKU:         in.SKU,
		Name:        in.Name,
		Description: in.Description,
		Cost:        in.Cost,
		Price:       in.Price,
		UnitMeasure: in.UnitMeasure,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		if err := r.Products.Create(ctx, product); err != nil {
			return err
		}
		return audit.Append(ctx, r.Audit, audit.Entry{
			CompanyID:  actor.CompanyID,
			EntityType: entity.AuditEntityProduct,
			EntityID:   product.ID,
			Action:     "create",
			NewValue:   map[string]any{"sku": product.SKU, "name": product.Name},
			Actor:      actor.UserID,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update modifica nombre, descripción, precio o estado activo.
func (uc *ProductUseCase) Update(ctx context.Context, actor ports.Actor, productID string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if vf := validation.Permission(actor.Role, validation.ActionManageCatalog); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityProduct, productID, vf)
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}

	prev := map[string]any{"name": product.Name, "price": product.Price.String(), "active": product.Active}
	if in.Name != "" {
		product.Name = in.Name
	}
	if in.Description != "" {
		product.Description = in.Description
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	now := time.Now()
	product.UpdatedAt = now

	err = uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		if err := r.Products.Update(ctx, product); err != nil {
			return err
		}
		return audit.Append(ctx, r.Audit, audit.Entry{
			CompanyID:  actor.CompanyID,
			EntityType: entity.AuditEntityProduct,
			EntityID:   product.ID,
			Action:     "update",
			OldValue:   prev,
			NewValue:   map[string]any{"name": product.Name, "price": product.Price.String(), "active": product.Active},
			Actor:      actor.UserID,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID devuelve un producto de la empresa del actor.
func (uc *ProductUseCase) GetByID(ctx context.Context, companyID, productID string) (*dto.ProductResponse, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toProductResponse(product), nil
}

// List pagina los productos de la empresa.
func (uc *ProductUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) ([]dto.ProductResponse, error) {
	page.DefaultPage()
	products, err := uc.productRepo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, *toProductResponse(p))
	}
	return out, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Cost:        p.Cost,
		Price:       p.Price,
		UnitMeasure: p.UnitMeasure,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
	}
}
