// Package sqlog journals submitted messages and their delivery receipts in
// a MySQL table.
package sqlog

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"

	"github.com/jimni/smppsend/sms"
)

const schema = `CREATE TABLE IF NOT EXISTS smppsend_log (
	message_id VARCHAR(64) NOT NULL PRIMARY KEY,
	source VARCHAR(21) NOT NULL,
	destination VARCHAR(21) NOT NULL,
	data_coding TINYINT UNSIGNED NOT NULL,
	part TINYINT UNSIGNED NOT NULL,
	parts TINYINT UNSIGNED NOT NULL,
	body VARBINARY(65535) NOT NULL,
	submitted DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	stat VARCHAR(16) NULL,
	err INT NULL,
	delivered DATETIME NULL
)`

type DB struct {
	db *sql.DB
}

// Connect opens the journal at the DSN and creates its table.
func Connect(dsn string) (*DB, error) {
	db, err := sql.Open("mysql", dsn) // "user:pass@tcp(host)/smppsend?parseTime=true"
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Submitted records a message part accepted by the SMSC.
func (db *DB) Submitted(id string, req *sms.Request) error {
	part, parts := uint8(1), uint8(1)
	if req.UDH != nil {
		part, parts = req.UDH.Part, req.UDH.Total
	}
	_, err := db.db.Exec(`INSERT INTO smppsend_log
		SET message_id=?,source=?,destination=?,data_coding=?,part=?,parts=?,body=?
		ON DUPLICATE KEY UPDATE submitted=CURRENT_TIMESTAMP`,
		id, req.SourceAddr, req.DestinationAddr, req.DataCoding, part, parts, req.Body())
	return err
}

// Delivered records the final state reported by a delivery receipt.
func (db *DB) Delivered(r sms.Receipt) error {
	_, err := db.db.Exec(`UPDATE smppsend_log SET stat=?,err=?,delivered=CURRENT_TIMESTAMP
		WHERE message_id=?`, r.Stat, r.Err, r.ID)
	return err
}
