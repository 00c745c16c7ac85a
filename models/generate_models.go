package models

import (
	"fmt"
	"log"
	"os"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
Model tooling, driven by environment flags in main.go:

  GENERATE_MODELS=true         migrate, print the column report, then emit typed
                               query helpers into ./generated with gorm.io/gen
  GENERATE_COLUMN_REPORT=true  only print the column report

The column report lists database columns that no model field maps to, which is
how drift between a hand-edited schema and these structs shows up:

	=== COLUMN MISMATCH REPORT ===
	--- Table: projects ---
	Found 1 columns not accounted for in model:
	  - legacy_slug
*/

// tableModels maps every managed table to its model.
func tableModels() map[string]interface{} {
	return map[string]interface{}{
		"types":              Type{},
		"technologies":       Technology{},
		"projects":           Project{},
		"project_technology": ProjectTechnology{},
	}
}

// Migrate creates or updates the tables for every model. The pivot table is
// registered first so the many2many relation uses ProjectTechnology.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Project{}, "Technologies", &ProjectTechnology{}); err != nil {
		return fmt.Errorf("setup project_technology join table: %w", err)
	}
	return db.AutoMigrate(
		&Type{},
		&Technology{},
		&Project{},
		&ProjectTechnology{},
	)
}

func GenerateModels(db *gorm.DB) {
	if err := db.Exec("SELECT 1").Error; err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	verbose := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel: logger.Info,
			Colorful: true,
		},
	)
	session := db.Session(&gorm.Session{
		Logger:                 verbose,
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	fmt.Println("Migrating models...")
	if err := Migrate(session); err != nil {
		fmt.Printf("Error during models migration: %v\n", err)
		os.Exit(1)
	}

	PrintColumnMismatchReport(session)

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(session)
	g.ApplyBasic(Type{}, Technology{}, Project{}, ProjectTechnology{})
	g.Execute()

	fmt.Println("Model generation complete!")
}

// ColumnMismatch lists the unmapped columns of one table.
type ColumnMismatch struct {
	Table   string
	Missing []string
	Err     error
}

// ColumnMismatchReport compares every managed table against its model.
func ColumnMismatchReport(db *gorm.DB) []ColumnMismatch {
	mapping := tableModels()
	tables := make([]string, 0, len(mapping))
	for table := range mapping {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	report := make([]ColumnMismatch, 0, len(tables))
	for _, table := range tables {
		columns, err := tableColumns(db, table)
		if err != nil {
			report = append(report, ColumnMismatch{Table: table, Err: err})
			continue
		}
		report = append(report, ColumnMismatch{
			Table:   table,
			Missing: findColumnMismatches(columns, modelColumns(mapping[table])),
		})
	}
	return report
}

func PrintColumnMismatchReport(db *gorm.DB) {
	fmt.Println("=== COLUMN MISMATCH REPORT ===")

	total := 0
	for _, entry := range ColumnMismatchReport(db) {
		fmt.Printf("\n--- Table: %s ---\n", entry.Table)
		switch {
		case entry.Err != nil:
			fmt.Printf("Error reading columns: %v\n", entry.Err)
		case len(entry.Missing) == 0:
			fmt.Println("All columns are accounted for in the model.")
		default:
			fmt.Printf("Found %d columns not accounted for in model:\n", len(entry.Missing))
			for _, col := range entry.Missing {
				fmt.Printf("  - %s\n", col)
			}
			total += len(entry.Missing)
		}
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Total mismatched columns across all tables: %d\n", total)
}

func tableColumns(db *gorm.DB, table string) ([]string, error) {
	var columns []string
	err := db.Raw(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ? AND table_schema = CURRENT_SCHEMA()
		ORDER BY ordinal_position`, table).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return columns, nil
}

// modelColumns returns the explicit column names of a model's fields.
// Relation fields carry no column tag and are skipped.
func modelColumns(model interface{}) []string {
	var columns []string
	t := reflect.TypeOf(model)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			continue
		}
		if column := columnFromGormTag(field.Tag.Get("gorm")); column != "" {
			columns = append(columns, column)
		}
	}
	return columns
}

func columnFromGormTag(tag string) string {
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	return ""
}

func findColumnMismatches(dbColumns, modelFields []string) []string {
	known := make(map[string]struct{}, len(modelFields))
	for _, field := range modelFields {
		known[field] = struct{}{}
	}

	var missing []string
	for _, col := range dbColumns {
		if _, ok := known[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
