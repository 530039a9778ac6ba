// cmd/tools/formula-seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"wastematch/internal/common/config"
	"wastematch/internal/common/database"
	"wastematch/internal/common/logger"
	"wastematch/internal/store"
)

// formula-seeder loads the built-in CO2 emission formula table into
// Postgres. Upserts by waste type, so re-running refreshes factors
// without duplicating rows.
func main() {
	list := flag.Bool("list", false, "print the built-in formula table and exit")
	flag.Parse()

	if *list {
		for _, f := range store.DefaultFormulas {
			fmt.Printf("%-16s virgin=%.2f recycled=%.2f savings=%.2f t/t\n",
				f.WasteType, f.VirginEmissionFactor, f.RecycledEmissionFactor, f.CO2SavingsPerTon())
		}
		return
	}

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	formulas := store.NewFormulaStore(pg.DB)
	if err := formulas.Seed(context.Background()); err != nil {
		zapLog.Fatal("formula seed failed", zap.Error(err))
	}

	fmt.Printf("seeded %d emission formulas\n", len(store.DefaultFormulas))
}
