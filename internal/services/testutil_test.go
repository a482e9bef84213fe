package services

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/caresupport-backend/internal/logger"
	"github.com/yungbote/caresupport-backend/internal/repos"
	"github.com/yungbote/caresupport-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}

	if err := db.AutoMigrate(&types.Conversation{}, &types.MessageEvent{}, &types.ChannelInstance{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	return db
}

func newTestLedger(t *testing.T) (LedgerService, *gorm.DB) {
	t.Helper()
	return newTestLedgerWithNotifier(t, nil)
}

func newTestLedgerWithNotifier(t *testing.T, notifier ConversationNotifier) (LedgerService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	log := testLogger()
	convRepo := repos.NewConversationRepo(db, log)
	eventRepo := repos.NewMessageEventRepo(db, log)
	return NewLedgerService(db, log, convRepo, eventRepo, notifier), db
}

func newTestInbound(t *testing.T) (InboundService, LedgerService) {
	t.Helper()

	ledger, _ := newTestLedger(t)
	return NewInboundService(testLogger(), ledger, NewTriggerDetector(nil), NewKeyLock()), ledger
}

func strPtr(s string) *string {
	return &s
}
