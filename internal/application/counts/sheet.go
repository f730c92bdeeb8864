package counts

import (
	"context"
	"fmt"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
)

// SheetData datos que necesita la hoja de conteo impresa.
type SheetData struct {
	Count      *entity.Count
	BranchName string
	Details    []*entity.CountDetail
	// Blind oculta existencia del sistema y diferencias (hoja para el contador).
	Blind bool
}

// SheetGenerator genera el PDF de la hoja de conteo (ver infrastructure/pdf).
type SheetGenerator interface {
	GenerateCountSheet(ctx context.Context, data SheetData) ([]byte, error)
}

// SheetUseCase arma la hoja de conteo para imprimir.
type SheetUseCase struct {
	counts    repository.CountRepository
	details   repository.CountDetailRepository
	branches  repository.BranchRepository
	generator SheetGenerator
}

// NewSheetUseCase construye el caso de uso inyectando sus dependencias.
func NewSheetUseCase(
	counts repository.CountRepository,
	details repository.CountDetailRepository,
	branches repository.BranchRepository,
	generator SheetGenerator,
) *SheetUseCase {
	return &SheetUseCase{counts: counts, details: details, branches: branches, generator: generator}
}

// Download devuelve los bytes del PDF y el nombre de archivo sugerido.
// Un conteo cancelado no se imprime.
func (uc *SheetUseCase) Download(ctx context.Context, countID int64, blind bool) (pdfBytes []byte, filename string, err error) {
	c, err := uc.counts.GetByID(ctx, countID)
	if err != nil {
		return nil, "", fmt.Errorf("hoja: obtener conteo: %w", err)
	}
	if c == nil {
		return nil, "", domain.ErrNotFound
	}
	if c.Status == entity.CountStatusCancelado {
		return nil, "", fmt.Errorf("%w: el conteo %s está cancelado", domain.ErrInvalidInput, c.Folio)
	}
	details, err := uc.details.ListByCount(ctx, c.ID)
	if err != nil {
		return nil, "", fmt.Errorf("hoja: obtener renglones: %w", err)
	}

	branchName := fmt.Sprintf("Sucursal %d", c.BranchID)
	if b, err := uc.branches.GetByID(ctx, c.BranchID); err == nil && b != nil {
		branchName = b.Name
	}

	out, err := uc.generator.GenerateCountSheet(ctx, SheetData{Count: c, BranchName: branchName, Details: details, Blind: blind})
	if err != nil {
		return nil, "", err
	}
	return out, "conteo-" + c.Folio + ".pdf", nil
}
