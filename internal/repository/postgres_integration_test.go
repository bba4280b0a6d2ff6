//go:build integration

// Postgres 真库集成测试，验证条件更新在并发数据库下的语义。
// 运行要求本机有 Docker: go test -tags=integration ./internal/repository/
package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

func startPostgres(t *testing.T) *gorm.DB {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("test_invest"),
		tcPostgres.WithUsername("test_user"),
		tcPostgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf(
		"host=%s port=%s user=test_user password=test_password dbname=test_invest sslmode=disable",
		host, port.Port())

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Package{},
		&models.Bot{},
	))
	return db
}

func TestPackageRepository_Postgres(t *testing.T) {
	db := startPostgres(t)
	repo := NewPackageRepository(db)
	ctx := context.Background()

	user := &models.User{Email: "pg@test.io", ReferralCode: "PGUSER01", Status: models.UserStatusActive}
	require.NoError(t, db.Create(user).Error)

	pkg := &models.Package{
		UserID:     user.ID,
		Amount:     1000,
		Tier:       "neo",
		RoiPercent: 3.0,
		Status:     models.PackageStatusPending,
		Network:    models.NetworkBEP20,
	}
	require.NoError(t, repo.Create(ctx, pkg))

	t.Run("激活只生效一次", func(t *testing.T) {
		now := time.Now()
		ok, err := repo.Activate(ctx, pkg.ID, "0xhash", now, now.AddDate(0, 12, 0), now.Add(720*time.Hour))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Activate(ctx, pkg.ID, "0xhash2", now, now.AddDate(0, 12, 0), now.Add(720*time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.GetByID(ctx, pkg.ID)
		require.NoError(t, err)
		assert.Equal(t, "0xhash", *got.DepositTxHash)
	})

	t.Run("收益推进乐观并发", func(t *testing.T) {
		got, err := repo.GetByID(ctx, pkg.ID)
		require.NoError(t, err)

		// 同一份读取推进两次，模拟并发双发，只有一次生效
		ok, err := repo.AdvanceRoi(db, got, 30.00, time.Now().Add(720*time.Hour))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.AdvanceRoi(db, got, 30.00, time.Now().Add(720*time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)

		got, err = repo.GetByID(ctx, pkg.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.RoiPaidCount)
		assert.Equal(t, 30.00, got.TotalRoiPaid)
	})

	t.Run("过期翻转只生效一次", func(t *testing.T) {
		ok, err := repo.MarkExpired(db, pkg.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.MarkExpired(db, pkg.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
