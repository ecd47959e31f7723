package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/greenbasket/plantfuture-backend/internal/config"
	"github.com/greenbasket/plantfuture-backend/internal/db"
	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedTreeType struct {
	ID               string
	Name             string
	Price            string
	InvestmentReturn string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := gdb.AutoMigrate(
		&model.User{},
		&model.Tree{},
		&model.Device{},
		&model.DeviceFailure{},
		&model.TreeType{},
		&model.RewardProduct{},
		&model.LedgerEntry{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	txm := repository.NewTxManager(gdb)
	return txm.Do(ctx, func(r repository.Repos) error {
		for _, st := range treeTypes() {
			price, err := decimal.NewFromString(st.Price)
			if err != nil {
				return err
			}
			ret, err := decimal.NewFromString(st.InvestmentReturn)
			if err != nil {
				return err
			}
			if err := r.TreeTypes.Upsert(ctx, &model.TreeType{
				ID:               st.ID,
				Name:             st.Name,
				Price:            price,
				InvestmentReturn: ret,
			}); err != nil {
				return fmt.Errorf("upsert tree type %s: %w", st.ID, err)
			}
		}
		if os.Getenv("SEED_DEMO_DATA") != "true" {
			log.Printf("tree types seeded; set SEED_DEMO_DATA=true for demo users and devices")
			return nil
		}
		return seedDemo(ctx, r)
	})
}

func treeTypes() []seedTreeType {
	return []seedTreeType{
		{ID: "mango", Name: "Mango Tree", Price: "5.00", InvestmentReturn: "50.00"},
		{ID: "avocado", Name: "Avocado Tree", Price: "7.00", InvestmentReturn: "70.00"},
		{ID: "apple", Name: "Apple Tree", Price: "6.00", InvestmentReturn: "60.00"},
	}
}

func seedDemo(ctx context.Context, r repository.Repos) error {
	users := []model.User{
		{UID: "customer1", Name: "Customer 1", Role: model.RoleCustomer, Balance: decimal.RequireFromString("200.00"), Points: 1000},
		{UID: "farmer1", Name: "Farmer 1", Role: model.RoleFarmer, Balance: decimal.RequireFromString("500.00"), Points: 200},
		{UID: "farmer2", Name: "Farmer 2", Role: model.RoleFarmer, Balance: decimal.RequireFromString("300.00"), Points: 150},
	}
	for i := range users {
		if _, err := r.Users.Get(ctx, users[i].UID); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := r.Users.Create(ctx, &users[i]); err != nil {
			return fmt.Errorf("create user %s: %w", users[i].UID, err)
		}
	}

	devices := []model.Device{
		{ID: "sensor-f1-01", FarmerID: "farmer1", Status: model.DeviceActive},
		{ID: "sensor-f1-02", FarmerID: "farmer1", Status: model.DeviceActive},
		{ID: "sensor-f2-01", FarmerID: "farmer2", Status: model.DeviceActive},
	}
	for i := range devices {
		taken, err := r.Devices.Exists(ctx, devices[i].ID)
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		if err := r.Devices.Create(ctx, &devices[i]); err != nil {
			return fmt.Errorf("create device %s: %w", devices[i].ID, err)
		}
	}

	rewards, err := r.Rewards.List(ctx)
	if err != nil {
		return err
	}
	if len(rewards) == 0 {
		if err := r.Rewards.Create(ctx, &model.RewardProduct{
			FarmerID: "farmer1",
			Name:     "Discounted Carrot",
			Points:   50,
			Quantity: 20,
		}); err != nil {
			return fmt.Errorf("create reward product: %w", err)
		}
	}
	log.Printf("demo data seeded")
	return nil
}
