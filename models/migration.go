package models

import (
	"log"

	"bitbucket.org/mmdatafocus/pos_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Shop{}, &User{},
		&Product{}, &StockMovement{},
		&Customer{}, &Expense{},
		&SalesInvoice{}, &SalesInvoiceLine{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
