package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
)

// Usage example on the command line:
// > STORE=mysql DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 go run ./cmd/migration -file=scripts/contacts.sql
// > MONGODB_URI=mongodb://localhost:27017 go run ./cmd/migration
func main() {
	filePtr := flag.String("file", "scripts/contacts.sql", "the sql file to execute (mysql only)")
	flag.Parse()

	conf, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(conf.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch conf.Store {
	case config.StoreMySQL:
		sqlDB, err := store.ConnectMySQL(ctx, conf.MySQL.DSN())
		if err != nil {
			log.Fatal("could not connect", "error", err)
		}
		db := sqlx.NewDb(sqlDB, "mysql")
		defer db.Close()
		count, err := executeFile(ctx, db, *filePtr)
		if err != nil {
			log.Fatal("migration failed", "file", *filePtr, "error", err)
		}
		log.Info("Executed sql file", "file", *filePtr, "statements", count)
	default:
		// Connecting creates the indexes of the contacts collection.
		conn, err := store.ConnectMongo(ctx, conf.Mongo.URI, conf.Mongo.Database)
		if err != nil {
			log.Fatal("could not connect", "error", err)
		}
		defer conn.Disconnect(context.Background())
		log.Info("Ensured indexes", "database", conf.Mongo.Database, "collection", store.CollectionName)
	}
}

// executeFile runs the statements of a sql file one after another. Statements end with a
// semicolon at the end of a line.
func executeFile(ctx context.Context, db *sqlx.DB, path string) (int, error) {
	readFile, err := os.Open(path) // nosemgrep
	if err != nil {
		return 0, err
	}
	defer readFile.Close()

	count := 0
	fileScanner := bufio.NewScanner(readFile)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for fileScanner.Scan() {
		line := fileScanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			if _, err := db.ExecContext(ctx, builder.String()); err != nil {
				return count, err
			}
			count++
			builder = strings.Builder{}
		}
	}
	return count, fileScanner.Err()
}
