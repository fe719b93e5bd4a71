package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"exposureserver/internal/model"
	"exposureserver/internal/repository/file"
	"exposureserver/internal/repository/sqlite"
	"exposureserver/internal/service/exposure"
	"exposureserver/internal/service/feedback"
)

func main() {
	ledgerPath := flag.String("ledger", "data/feedback.json", "JSON feedback ledger to import")
	dbPath := flag.String("db", "data/feedback.db", "Database path")
	flag.Parse()

	fmt.Printf("Migrating feedback from %s to database %s\n", *ledgerPath, *dbPath)

	source := file.NewLedgerRepository(*ledgerPath)
	defer source.Close()

	ledger, err := source.Load()
	if err != nil {
		log.Fatalf("Failed to read ledger: %v", err)
	}

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	target := sqlite.NewFeedbackRepository(db)
	defer target.Close()

	var records []model.FeedbackRecord
	skipped := 0
	for i := 0; i < ledger.Len(); i++ {
		rec := ledger.Record(i)
		if err := feedback.Validate(rec); err != nil {
			log.Printf("⚠️  Skipping record %d: %v", i, err)
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		fmt.Println("No feedback found to migrate")
		return
	}

	fmt.Printf("Inserting %d records into database...\n", len(records))
	if err := target.AppendBatch(records); err != nil {
		log.Fatalf("Failed to insert feedback: %v", err)
	}

	fmt.Printf("✅ Successfully migrated %d records to database\n", len(records))
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d records (invalid values)\n", skipped)
	}

	stored, err := target.Load()
	if err == nil {
		fmt.Printf("\n📊 Database Statistics:\n")
		fmt.Printf("   Total records: %d\n", stored.Len())
		fmt.Printf("   Average ISO: %d\n", feedback.AverageISO(stored, exposure.DefaultISO))
	}
}
