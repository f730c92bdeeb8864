// seed_branches da de alta sucursales en la base local a partir de un CSV exportado del ERP.
//
// Uso: go run ./cmd/seed_branches [ruta/sucursales.csv]
// Por defecto busca sucursales.csv en el directorio actual.
// Columnas: code,name,host,port,user,password,database,charset,active
// El archivo viene en ISO-8859-1 (exportación del ERP); las sucursales ya existentes se omiten.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/branches"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/postgres"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/config"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/secret"
)

// offlineRegistry: la herramienta no abre conexiones; el servidor las levanta al arrancar.
type offlineRegistry struct{}

func (offlineRegistry) Initialize(context.Context, []entity.Branch) {}
func (offlineRegistry) AddOrReplace(_ context.Context, b entity.Branch) entity.BranchStatus {
	return entity.BranchStatus{ID: b.ID, Code: b.Code, Name: b.Name}
}
func (offlineRegistry) Remove(int64) bool { return false }
func (offlineRegistry) Statuses() []entity.BranchStatus { return nil }
func (offlineRegistry) CheckAll(context.Context) {}

func main() {
	csvPath := "sucursales.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	inputs, err := readBranches(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	box, err := secret.NewBox(cfg.Branches.SecretKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "BRANCH_SECRET_KEY: %v\n", err)
		os.Exit(1)
	}
	svc := branches.NewService(
		postgres.NewBranchRepository(pool, box), offlineRegistry{}, nil, postgres.NewAuditLog(pool), log,
	)

	created, skipped := 0, 0
	for _, in := range inputs {
		b, _, err := svc.Create(ctx, in)
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
			continue
		case err != nil:
			fmt.Fprintf(os.Stderr, "Sucursal %s: %v\n", in.Code, err)
			os.Exit(1)
		}
		created++
		fmt.Printf("  %s (%s) → id %d\n", b.Code, b.Name, b.ID)
	}
	fmt.Printf("Sucursales: %d creadas, %d existentes omitidas\n", created, skipped)
}

// readBranches decodifica Latin-1 y convierte cada fila en un alta. La primera fila es el encabezado.
func readBranches(r io.Reader) ([]branches.Input, error) {
	cr := csv.NewReader(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var out []branches.Input
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "code") {
			continue
		}
		if len(rec) < 7 {
			return nil, fmt.Errorf("línea %d: se esperaban al menos 7 columnas, hay %d", line, len(rec))
		}
		port, err := strconv.Atoi(strings.TrimSpace(rec[3]))
		if err != nil {
			return nil, fmt.Errorf("línea %d: puerto inválido %q", line, rec[3])
		}
		in := branches.Input{
			Code:     strings.TrimSpace(rec[0]),
			Name:     strings.TrimSpace(rec[1]),
			Host:     strings.TrimSpace(rec[2]),
			Port:     port,
			User:     strings.TrimSpace(rec[4]),
			Password: rec[5],
			Database: strings.TrimSpace(rec[6]),
		}
		if len(rec) > 7 {
			in.Charset = strings.TrimSpace(rec[7])
		}
		if len(rec) > 8 {
			active := parseBool(rec[8])
			in.Active = &active
		}
		out = append(out, in)
	}
	return out, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "si", "sí", "s", "true", "activo", "activa":
		return true
	}
	return false
}
