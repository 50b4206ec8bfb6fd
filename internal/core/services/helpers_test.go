package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/adapters/persistence/repositories"
	"salonq/internal/core/domain"
	"salonq/internal/core/services"
)

type sentPush struct {
	token string
	msg   services.PushMessage
}

// recordingNotifier captures device pushes instead of delivering them
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentPush
}

func (n *recordingNotifier) SendToDevice(_ context.Context, deviceToken string, msg services.PushMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentPush{token: deviceToken, msg: msg})
	return nil
}

func (n *recordingNotifier) tokens() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, p := range n.sent {
		out = append(out, p.token)
	}
	return out
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	store    *repositories.QueueRepository
	tokens   *services.TokenAllocator
	hub      *services.SSEHub
	push     *recordingNotifier
	waits    *services.WaitTimeService
	bookings *services.BookingService
	priority *services.PriorityService
	salons   *services.SalonService
	auto     *services.QueueAutoService
	now      time.Time

	salon        *models.Salon
	owner        *models.User
	manager      *models.User
	barber       *models.User
	alice        *models.User
	bob          *models.User
	managerStaff *models.Staff
	barberStaff  *models.Staff
	haircut      *models.SalonService
	beard        *models.SalonService
}

func inline(fn func()) { fn() }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	f := &fixture{
		t:   t,
		ctx: context.Background(),
		db:  db,
		now: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.owner = f.createUser("Owner", "0800000001", domain.RoleOwner)
	f.manager = f.createUser("Manager", "0800000002", domain.RoleCustomer)
	f.barber = f.createUser("Barber", "0800000003", domain.RoleCustomer)
	f.alice = f.createUser("Alice", "0800000004", domain.RoleCustomer)
	f.bob = f.createUser("Bob", "0800000005", domain.RoleCustomer)

	f.salon = &models.Salon{
		OwnerID:             f.owner.ID,
		Name:                "Test Salon",
		IsActive:            true,
		IsOpen:              true,
		ActiveBarbers:       2,
		TotalBarbers:        3,
		AvgServiceTime:      20,
		MaxQueueSize:        50,
		PriorityLimitPerDay: 2,
		PriorityResetDate:   domain.DayKey(f.now),
	}
	require.NoError(t, db.Create(f.salon).Error)

	f.managerStaff = f.createStaff("Manager", f.manager.ID, domain.StaffRoleManager, 10)
	f.barberStaff = f.createStaff("Barber", f.barber.ID, domain.StaffRoleBarber, 40)

	f.haircut = &models.SalonService{SalonID: f.salon.ID, Name: "Haircut", Price: 250, Duration: 30, IsActive: true}
	f.beard = &models.SalonService{SalonID: f.salon.ID, Name: "Beard trim", Price: 100, Duration: 15, IsActive: true}
	require.NoError(t, db.Create(f.haircut).Error)
	require.NoError(t, db.Create(f.beard).Error)

	policy, err := services.NewPolicy()
	require.NoError(t, err)

	f.store = repositories.NewQueueRepository(db)
	f.hub = services.NewSSEHub()
	f.push = &recordingNotifier{}
	f.waits = services.NewWaitTimeService(f.store)
	f.waits.SetClock(clock)
	notify := services.NewQueueNotifyService(f.hub, f.push, f.store, f.waits)
	ledger := services.NewQueueLedger()

	f.tokens = services.NewTokenAllocator()
	f.bookings = services.NewBookingService(f.store, ledger, f.tokens, policy, notify)
	f.bookings.SetClock(clock)
	f.bookings.SetFanout(inline)

	f.priority = services.NewPriorityService(f.store, ledger, policy, notify)
	f.priority.SetClock(clock)
	f.priority.SetFanout(inline)

	f.salons = services.NewSalonService(f.store, ledger, policy, notify)
	f.salons.SetFanout(inline)

	f.auto = services.NewQueueAutoService(f.store, f.bookings, services.AutoConfig{NoShowGrace: 30 * time.Minute})
	f.auto.SetClock(clock)
	return f
}

func (f *fixture) createUser(name, phone string, role domain.Role) *models.User {
	f.t.Helper()
	u := &models.User{Name: name, Phone: &phone, Role: role, IsActive: true, DeviceToken: "device-" + phone}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixture) createStaff(name string, userID uint, role domain.StaffRole, commission float64) *models.Staff {
	f.t.Helper()
	s := &models.Staff{
		SalonID:         f.salon.ID,
		UserID:          &userID,
		Name:            name,
		Role:            role,
		IsActive:        true,
		CommissionType:  domain.CommissionPercentage,
		CommissionValue: commission,
	}
	require.NoError(f.t, f.db.Create(s).Error)
	return s
}

func actorOf(u *models.User) domain.Actor {
	return domain.Actor{UserID: u.ID, Role: u.Role}
}

func (f *fixture) ownerActor() domain.Actor   { return actorOf(f.owner) }
func (f *fixture) managerActor() domain.Actor { return actorOf(f.manager) }
func (f *fixture) barberActor() domain.Actor  { return actorOf(f.barber) }

// join puts a fresh customer in the queue and returns the booking
func (f *fixture) join(u *models.User) *models.Booking {
	f.t.Helper()
	b, err := f.bookings.JoinQueue(f.ctx, actorOf(u), &services.JoinQueueInput{
		SalonID:    f.salon.ID,
		ServiceIDs: []uint{f.haircut.ID},
	})
	require.NoError(f.t, err)
	return b
}

// walkIn registers an anonymous counter customer
func (f *fixture) walkIn(name string) *models.Booking {
	f.t.Helper()
	b, err := f.bookings.CreateWalkIn(f.ctx, f.barberActor(), f.salon.ID, &services.WalkInInput{
		ServiceIDs:   []uint{f.haircut.ID},
		CustomerName: name,
	})
	require.NoError(f.t, err)
	return b
}

func (f *fixture) booking(id uint) *models.Booking {
	f.t.Helper()
	b, err := f.store.GetBooking(f.ctx, id)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) reloadSalon() *models.Salon {
	f.t.Helper()
	s, err := f.store.GetSalon(f.ctx, f.salon.ID)
	require.NoError(f.t, err)
	return s
}

// positions returns the active queue as booking ID -> position
func (f *fixture) positions() map[uint]int {
	f.t.Helper()
	active, err := f.store.ListActiveBookings(f.ctx, f.salon.ID)
	require.NoError(f.t, err)
	out := make(map[uint]int, len(active))
	for _, b := range active {
		out[b.ID] = b.QueuePosition
	}
	return out
}

// requireContiguous checks the active positions are exactly 1..N
func (f *fixture) requireContiguous() {
	f.t.Helper()
	active, err := f.store.ListActiveBookings(f.ctx, f.salon.ID)
	require.NoError(f.t, err)
	for i, b := range active {
		require.Equal(f.t, i+1, b.QueuePosition, "booking %d", b.ID)
	}
}

func (f *fixture) extraCustomer(i int) *models.User {
	return f.createUser(fmt.Sprintf("Customer %d", i), fmt.Sprintf("0811%06d", i), domain.RoleCustomer)
}
