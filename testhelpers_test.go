//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/adapter"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/domain/payment"
	"github.com/martinsuhendra/manta/internal/domain/quota"
	mantaEvents "github.com/martinsuhendra/manta/internal/events"
	"github.com/martinsuhendra/manta/internal/repository"
	"github.com/martinsuhendra/manta/internal/saga"
	"github.com/martinsuhendra/manta/pkg/database"
	"github.com/martinsuhendra/manta/pkg/events"
	"github.com/martinsuhendra/manta/pkg/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testServerKey = "SB-Mid-server-integration"

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	DatabaseURL  string
	KafkaBrokers []string
	Cleanup      func()
}

// mantaStack holds wired-up service components.
type mantaStack struct {
	Catalog     *application.CatalogService
	Schedule    *application.ScheduleService
	Memberships *application.MembershipService
	Bookings    *application.BookingService
	Freezes     *application.FreezeService
	Payments    *repository.PaymentRepositoryImpl
	Usages      *repository.QuotaUsageRepositoryImpl
	Consumer    *mantaEvents.PaymentNotificationConsumer
	Close       func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers, applies the SQL migrations
// and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_manta",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pgCfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Int(),
		User:     "test",
		Password: "test",
		DBName:   "test_manta",
	}

	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(pgCfg, logger)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(pgCfg.DatabaseURL(), "migrations", logger))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicMembershipEvents, events.TopicPaymentNotifications)

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		DatabaseURL:  pgCfg.DatabaseURL(),
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupStack wires the services the way cmd/server does, publishing to Kafka.
func setupStack(t *testing.T, db *gorm.DB, brokers []string) *mantaStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	itemRepo := repository.NewItemRepository(db)
	poolRepo := repository.NewQuotaPoolRepository(db)
	productRepo := repository.NewProductRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	usageRepo := repository.NewQuotaUsageRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	freezeRepo := repository.NewFreezeRequestRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	tx := database.NewGormTransactor(db)

	producer := kafka.NewProducer(brokers, logger)
	gateway := adapter.NewMockPaymentGateway("https://app.sandbox.midtrans.com", logger)
	purchase := saga.NewPurchaseSagaService(tx, productRepo, membershipRepo, paymentRepo, gateway, producer, "IDR", logger)
	membershipSvc := application.NewMembershipService(tx, membershipRepo, productRepo, paymentRepo, purchase, producer, testServerKey, logger)

	groupID := fmt.Sprintf("test-manta-%s", uuid.New().String()[:8])

	return &mantaStack{
		Catalog:     application.NewCatalogService(tx, itemRepo, poolRepo, productRepo, logger),
		Schedule:    application.NewScheduleService(sessionRepo, itemRepo, logger),
		Memberships: membershipSvc,
		Bookings:    application.NewBookingService(tx, sessionRepo, itemRepo, productRepo, membershipRepo, bookingRepo, usageRepo, producer, logger),
		Freezes:     application.NewFreezeService(tx, freezeRepo, membershipRepo, producer, logger),
		Payments:    paymentRepo,
		Usages:      usageRepo,
		Consumer:    mantaEvents.NewPaymentNotificationConsumer(brokers, groupID, membershipSvc, logger),
		Close:       func() { _ = producer.Close() },
	}
}

// seedProduct creates one class type with the given capacity and a product granting it for free.
func seedProduct(t *testing.T, stack *mantaStack, capacity int) (itemID, productID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	item, err := stack.Catalog.CreateItem(ctx, application.CreateItemRequest{Name: "Reformer Pilates", Capacity: capacity})
	require.NoError(t, err)

	product, err := stack.Catalog.CreateProduct(ctx, application.CreateProductRequest{
		Name:         "Monthly Unlimited",
		PriceCents:   150_000_00,
		DurationDays: 30,
		Items:        []application.ProductItemInput{{ItemID: item.ID, QuotaType: "FREE"}},
	})
	require.NoError(t, err)
	return item.ID, product.ID
}

// signedNotification builds a gateway notification signed with testServerKey.
func signedNotification(orderID, transactionStatus string) payment.Notification {
	const statusCode, grossAmount = "200", "15000000.00"
	return payment.Notification{
		OrderID:           orderID,
		StatusCode:        statusCode,
		GrossAmount:       grossAmount,
		SignatureKey:      payment.Signature(orderID, statusCode, grossAmount, testServerKey),
		TransactionStatus: transactionStatus,
		TransactionID:     uuid.NewString(),
	}
}

// activeMembership purchases productID for userID and settles the payment directly.
func activeMembership(t *testing.T, stack *mantaStack, userID, productID uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	purchase, err := stack.Memberships.PurchaseMembership(ctx, userID, application.PurchaseMembershipRequest{ProductID: productID})
	require.NoError(t, err)

	result, err := stack.Memberships.HandlePaymentNotification(ctx, signedNotification(purchase.OrderID, "settlement"))
	require.NoError(t, err)
	require.True(t, result.MembershipActivated)
	return purchase.Membership.ID
}

// usedCount reads the stored counter for one scope, 0 when no row exists.
func usedCount(t *testing.T, stack *mantaStack, membershipID uuid.UUID, scope quota.Scope) int {
	t.Helper()
	usages, err := stack.Usages.FindByMembership(context.Background(), membershipID)
	require.NoError(t, err)
	for _, u := range usages {
		if u.Scope.Key() == scope.Key() {
			return u.UsedCount
		}
	}
	return 0
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, eventType string, data any) {
	t.Helper()
	producer := kafka.NewProducer(brokers, zap.NewNop())
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent("payment-gateway-relay", eventType, data)
	require.NoError(t, err, "failed to create cloud event")
	require.NoError(t, producer.PublishEvent(context.Background(), topic, ce), "failed to publish event")
}

// waitForMembershipStatus polls the memberships table until the status matches.
func waitForMembershipStatus(t *testing.T, db *gorm.DB, id uuid.UUID, expected string, timeout time.Duration) repository.MembershipModel {
	t.Helper()
	var result repository.MembershipModel
	require.Eventually(t, func() bool {
		var model repository.MembershipModel
		if err := db.Where("id = ?", id).First(&model).Error; err != nil {
			return false
		}
		if model.Status == expected {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "membership did not transition to %s", expected)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type and subject.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType, subject string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     fmt.Sprintf("test-assert-%s", uuid.New().String()[:8]),
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType && ce.Subject == subject {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	time.Sleep(1 * time.Second)
}
