package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/dshop/backend/internal/domain/fulfillment"
	"github.com/dshop/backend/internal/infrastructure/config"
	"github.com/dshop/backend/internal/infrastructure/logger"
	"github.com/dshop/backend/internal/infrastructure/persistence"
	"github.com/dshop/backend/internal/infrastructure/secrets"
)

func main() {
	var (
		shopID   int64
		key      string
		logLevel string
	)

	flag.Int64Var(&shopID, "shop", 0, "Shop ID")
	flag.StringVar(&key, "key", fulfillment.SecretKeyPrintful, "Encrypted config key")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 || shopID <= 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithGormLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel))),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	cipher, err := secrets.NewCipher(cfg.Secrets.EncryptionKey)
	if err != nil {
		log.Fatal("Failed to initialize config encryption", zap.Error(err))
	}
	store := secrets.NewEncryptedConfigStore(persistence.NewGormShopRepository(db.DB), cipher)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fields := []zap.Field{zap.Int64("shop_id", shopID), zap.String("key", key)}
	switch args[0] {
	case "set":
		if len(args) < 2 {
			log.Fatal("Value required. Usage: shopconfig -shop <id> set <value>")
		}
		if err := store.Set(ctx, shopID, key, args[1]); err != nil {
			log.Fatal("Failed to store value", append(fields, zap.Error(err))...)
		}
		log.Info("Value stored", fields...)

	case "unset":
		if err := store.Set(ctx, shopID, key, ""); err != nil {
			log.Fatal("Failed to remove value", append(fields, zap.Error(err))...)
		}
		log.Info("Value removed", fields...)

	case "check":
		value, err := store.Get(ctx, shopID, key)
		if err != nil {
			log.Fatal("Failed to read value", append(fields, zap.Error(err))...)
		}
		log.Info("Value checked", append(fields, zap.Bool("configured", value != ""))...)

	default:
		log.Error("Unknown command", zap.String("command", args[0]))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`dshop shop config tool

Usage:
  shopconfig -shop <id> [-key printful] <command> [arguments]

Commands:
  set <value>   Encrypt and store a value for the shop
  unset         Remove the value
  check         Report whether a value is stored (never prints it)

Examples:
  # Store a shop's Printful API key
  shopconfig -shop 12 set pf_live_xxx`)
}
