package service_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/construction-accounting/internal/metrics"
	"github.com/Dan9191/construction-accounting/internal/models"
	"github.com/Dan9191/construction-accounting/internal/repository"
)

// memStore is an in-memory stand-in for the repository. Reads return copies
// so services cannot mutate stored rows behind its back.
type memStore struct {
	nextID int64

	customers    map[int64]models.Customer
	balances     map[int64]models.CustomerBalance
	transactions []models.CustomerTransaction

	plans         map[int64]models.PaymentPlan
	installments  map[int64]models.Installment
	notifications map[int64]models.PaymentNotification

	cheques   map[int64]models.Cheque
	chequeLog []models.ChequeTransaction

	employees  map[int64]models.Employee
	attendance map[int64]models.AttendanceRecord

	properties map[int64]models.Property
	deeds      map[int64]models.Deed

	users map[string]models.User

	createPlanErr error
}

func newMemStore() *memStore {
	return &memStore{
		customers:     map[int64]models.Customer{},
		balances:      map[int64]models.CustomerBalance{},
		plans:         map[int64]models.PaymentPlan{},
		installments:  map[int64]models.Installment{},
		notifications: map[int64]models.PaymentNotification{},
		cheques:       map[int64]models.Cheque{},
		employees:     map[int64]models.Employee{},
		attendance:    map[int64]models.AttendanceRecord{},
		properties:    map[int64]models.Property{},
		deeds:         map[int64]models.Deed{},
		users:         map[string]models.User{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, models.ErrNotFound)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// customers

func (m *memStore) CreateCustomer(_ context.Context, c *models.Customer) error {
	for _, existing := range m.customers {
		if existing.TaxNumber == c.TaxNumber {
			return fmt.Errorf("create customer: %w", models.ErrConflict)
		}
	}
	c.ID = m.id()
	m.customers[c.ID] = *c
	m.balances[c.ID] = models.CustomerBalance{CustomerID: c.ID}
	return nil
}

func (m *memStore) UpdateCustomer(_ context.Context, c *models.Customer) error {
	if _, ok := m.customers[c.ID]; !ok {
		return notFound("customer", c.ID)
	}
	m.customers[c.ID] = *c
	return nil
}

func (m *memStore) DeleteCustomer(_ context.Context, id int64) error {
	if _, ok := m.customers[id]; !ok {
		return notFound("customer", id)
	}
	delete(m.customers, id)
	delete(m.balances, id)
	kept := m.transactions[:0]
	for _, t := range m.transactions {
		if t.CustomerID != id {
			kept = append(kept, t)
		}
	}
	m.transactions = kept
	return nil
}

func (m *memStore) GetCustomer(_ context.Context, id int64) (*models.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, notFound("customer", id)
	}
	return &c, nil
}

func (m *memStore) ListCustomers(_ context.Context, offset, limit int) ([]models.Customer, error) {
	var out []models.Customer
	for _, c := range m.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, offset, limit), nil
}

func (m *memStore) AddCustomerTransaction(_ context.Context, t *models.CustomerTransaction) error {
	b, ok := m.balances[t.CustomerID]
	if !ok {
		return notFound("customer", t.CustomerID)
	}
	t.ID = m.id()
	m.transactions = append(m.transactions, *t)
	if t.Type == models.TransactionDebit {
		b.TotalDebit = b.TotalDebit.Add(t.Amount)
	} else {
		b.TotalCredit = b.TotalCredit.Add(t.Amount)
	}
	m.balances[t.CustomerID] = b
	return nil
}

func (m *memStore) ListCustomerTransactions(_ context.Context, customerID int64, offset, limit int) ([]models.CustomerTransaction, error) {
	var out []models.CustomerTransaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].CustomerID == customerID {
			out = append(out, m.transactions[i])
		}
	}
	return paginate(out, offset, limit), nil
}

func (m *memStore) GetCustomerBalance(_ context.Context, customerID int64) (*models.CustomerBalance, error) {
	b, ok := m.balances[customerID]
	if !ok {
		return nil, notFound("balance of customer", customerID)
	}
	return &b, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

// plans and installments

func (m *memStore) CreatePlan(_ context.Context, plan *models.PaymentPlan, installments []models.Installment) error {
	if m.createPlanErr != nil {
		return m.createPlanErr
	}
	for _, p := range m.plans {
		if p.PlanNo == plan.PlanNo {
			return fmt.Errorf("create payment plan: %w", models.ErrConflict)
		}
	}
	plan.ID = m.id()
	for i := range installments {
		installments[i].ID = m.id()
		installments[i].PaymentPlanID = plan.ID
		m.installments[installments[i].ID] = installments[i]
	}
	plan.Installments = installments
	stored := *plan
	stored.Installments = nil
	m.plans[plan.ID] = stored
	return nil
}

func (m *memStore) GetPlan(_ context.Context, id int64) (*models.PaymentPlan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, notFound("payment plan", id)
	}
	return &p, nil
}

func (m *memStore) ListPlansByCustomer(_ context.Context, customerID int64) ([]models.PaymentPlan, error) {
	var out []models.PaymentPlan
	for _, p := range m.plans {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdatePlan(_ context.Context, plan *models.PaymentPlan) error {
	if _, ok := m.plans[plan.ID]; !ok {
		return notFound("payment plan", plan.ID)
	}
	m.plans[plan.ID] = *plan
	return nil
}

func (m *memStore) CountPaidInstallments(_ context.Context, planID int64) (int, error) {
	n := 0
	for _, inst := range m.installments {
		if inst.PaymentPlanID == planID && inst.Status == models.PaymentStatusPaid {
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetInstallment(_ context.Context, id int64) (*models.Installment, error) {
	inst, ok := m.installments[id]
	if !ok {
		return nil, notFound("installment", id)
	}
	return &inst, nil
}

func (m *memStore) filterInstallments(keep func(models.Installment) bool) []models.Installment {
	var out []models.Installment
	for _, inst := range m.installments {
		if keep(inst) {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) ListInstallmentsByPlan(_ context.Context, planID int64) ([]models.Installment, error) {
	out := m.filterInstallments(func(i models.Installment) bool { return i.PaymentPlanID == planID })
	sort.Slice(out, func(i, j int) bool { return out[i].InstallmentNo < out[j].InstallmentNo })
	return out, nil
}

func (m *memStore) ListPendingDueBefore(_ context.Context, before time.Time) ([]models.Installment, error) {
	return m.filterInstallments(func(i models.Installment) bool {
		return i.Status == models.PaymentStatusPending && i.DueDate.Before(before)
	}), nil
}

func (m *memStore) ListPendingDueBetween(_ context.Context, from, to time.Time) ([]models.Installment, error) {
	return m.filterInstallments(func(i models.Installment) bool {
		return i.Status == models.PaymentStatusPending && !i.DueDate.Before(from) && !i.DueDate.After(to)
	}), nil
}

func (m *memStore) MarkInstallmentPaid(_ context.Context, id int64, rec models.PaymentRecord) (*models.Installment, error) {
	inst, ok := m.installments[id]
	if !ok || inst.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("installment %d is not pending: %w", id, models.ErrInvalidTransition)
	}
	inst.Status = models.PaymentStatusPaid
	paidAt := rec.PaymentDate
	inst.PaymentDate = &paidAt
	inst.PaymentType = rec.PaymentType
	inst.PaymentReference = rec.Reference
	inst.Notes = rec.Notes
	m.installments[id] = inst
	return &inst, nil
}

func (m *memStore) CancelInstallment(_ context.Context, id int64, notes string) (*models.Installment, error) {
	inst, ok := m.installments[id]
	if !ok || inst.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("installment %d is not pending: %w", id, models.ErrInvalidTransition)
	}
	inst.Status = models.PaymentStatusCancelled
	if notes != "" {
		inst.Notes = notes
	}
	m.installments[id] = inst
	return &inst, nil
}

// notifications

func (m *memStore) CreateNotification(_ context.Context, n *models.PaymentNotification) error {
	n.ID = m.id()
	n.SentDate = time.Now()
	m.notifications[n.ID] = *n
	return nil
}

func (m *memStore) HasNotification(_ context.Context, installmentID int64, typ models.NotificationType) (bool, error) {
	for _, n := range m.notifications {
		if n.InstallmentID == installmentID && n.Type == typ {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListUnreadNotifications(_ context.Context) ([]models.PaymentNotification, error) {
	var out []models.PaymentNotification
	for _, n := range m.notifications {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, id int64) (*models.PaymentNotification, error) {
	n, ok := m.notifications[id]
	if !ok {
		return nil, notFound("notification", id)
	}
	n.IsRead = true
	m.notifications[id] = n
	return &n, nil
}

// cheques

func (m *memStore) CreateCheque(_ context.Context, c *models.Cheque, entry *models.ChequeTransaction) error {
	for _, existing := range m.cheques {
		if existing.ChequeNo == c.ChequeNo {
			return fmt.Errorf("create cheque: %w", models.ErrConflict)
		}
	}
	c.ID = m.id()
	m.cheques[c.ID] = *c
	entry.ChequeID = c.ID
	return m.AddChequeTransaction(context.Background(), entry)
}

func (m *memStore) UpdateCheque(_ context.Context, c *models.Cheque, entry *models.ChequeTransaction) error {
	if _, ok := m.cheques[c.ID]; !ok {
		return notFound("cheque", c.ID)
	}
	m.cheques[c.ID] = *c
	entry.ChequeID = c.ID
	return m.AddChequeTransaction(context.Background(), entry)
}

func (m *memStore) AddChequeTransaction(_ context.Context, entry *models.ChequeTransaction) error {
	entry.ID = m.id()
	entry.CreatedAt = time.Now()
	m.chequeLog = append(m.chequeLog, *entry)
	return nil
}

func (m *memStore) GetCheque(_ context.Context, id int64) (*models.Cheque, error) {
	c, ok := m.cheques[id]
	if !ok {
		return nil, notFound("cheque", id)
	}
	return &c, nil
}

func (m *memStore) sortedCheques(keep func(models.Cheque) bool) []models.Cheque {
	var out []models.Cheque
	for _, c := range m.cheques {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) ListCheques(_ context.Context, f repository.ChequeFilter) ([]models.Cheque, error) {
	out := m.sortedCheques(func(c models.Cheque) bool {
		return (f.Status == "" || c.Status == f.Status) && (f.Direction == "" || c.Direction == f.Direction)
	})
	return paginate(out, f.Offset, f.Limit), nil
}

func (m *memStore) ListPendingChequesDueBy(_ context.Context, by time.Time) ([]models.Cheque, error) {
	return m.sortedCheques(func(c models.Cheque) bool {
		return c.Status == models.ChequeStatusPending && !c.DueDate.After(by)
	}), nil
}

func (m *memStore) ListChequeTransactions(_ context.Context, chequeID int64, offset, limit int) ([]models.ChequeTransaction, error) {
	var out []models.ChequeTransaction
	for i := len(m.chequeLog) - 1; i >= 0; i-- {
		if m.chequeLog[i].ChequeID == chequeID {
			out = append(out, m.chequeLog[i])
		}
	}
	return paginate(out, offset, limit), nil
}

// employees

func (m *memStore) CreateEmployee(_ context.Context, e *models.Employee) error {
	for _, existing := range m.employees {
		if existing.EmployeeNo == e.EmployeeNo {
			return fmt.Errorf("create employee: %w", models.ErrConflict)
		}
	}
	e.ID = m.id()
	m.employees[e.ID] = *e
	return nil
}

func (m *memStore) UpdateEmployee(_ context.Context, e *models.Employee) error {
	if _, ok := m.employees[e.ID]; !ok {
		return notFound("employee", e.ID)
	}
	m.employees[e.ID] = *e
	return nil
}

func (m *memStore) DeleteEmployee(_ context.Context, id int64) error {
	if _, ok := m.employees[id]; !ok {
		return notFound("employee", id)
	}
	delete(m.employees, id)
	return nil
}

func (m *memStore) GetEmployee(_ context.Context, id int64) (*models.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return nil, notFound("employee", id)
	}
	return &e, nil
}

func (m *memStore) GetEmployeeByNo(_ context.Context, employeeNo string) (*models.Employee, error) {
	for _, e := range m.employees {
		if e.EmployeeNo == employeeNo {
			return &e, nil
		}
	}
	return nil, notFound("employee", employeeNo)
}

func (m *memStore) ListEmployees(_ context.Context, status models.EmployeeStatus) ([]models.Employee, error) {
	var out []models.Employee
	for _, e := range m.employees {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func (m *memStore) CreateAttendance(_ context.Context, a *models.AttendanceRecord) error {
	a.ID = m.id()
	m.attendance[a.ID] = *a
	return nil
}

func (m *memStore) UpdateAttendance(_ context.Context, a *models.AttendanceRecord) error {
	if _, ok := m.attendance[a.ID]; !ok {
		return notFound("attendance record", a.ID)
	}
	m.attendance[a.ID] = *a
	return nil
}

func (m *memStore) GetAttendance(_ context.Context, id int64) (*models.AttendanceRecord, error) {
	a, ok := m.attendance[id]
	if !ok {
		return nil, notFound("attendance record", id)
	}
	return &a, nil
}

func (m *memStore) ListAttendance(_ context.Context, employeeID int64, from, to *time.Time) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, a := range m.attendance {
		if a.EmployeeID != employeeID {
			continue
		}
		if (from != nil && a.Date.Before(*from)) || (to != nil && a.Date.After(*to)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// properties

func (m *memStore) CreateProperty(_ context.Context, p *models.Property) error {
	p.ID = m.id()
	p.UpdatedAt = time.Now()
	m.properties[p.ID] = *p
	return nil
}

func (m *memStore) UpdateProperty(_ context.Context, p *models.Property) error {
	if _, ok := m.properties[p.ID]; !ok {
		return notFound("property", p.ID)
	}
	p.UpdatedAt = time.Now()
	m.properties[p.ID] = *p
	return nil
}

func (m *memStore) DeleteProperty(_ context.Context, id int64) error {
	if _, ok := m.properties[id]; !ok {
		return notFound("property", id)
	}
	delete(m.properties, id)
	return nil
}

func (m *memStore) GetProperty(_ context.Context, id int64) (*models.Property, error) {
	p, ok := m.properties[id]
	if !ok {
		return nil, notFound("property", id)
	}
	return &p, nil
}

func (m *memStore) GetPropertyByNo(_ context.Context, propertyNo string) (*models.Property, error) {
	for _, p := range m.properties {
		if p.PropertyNo == propertyNo {
			return &p, nil
		}
	}
	return nil, notFound("property", propertyNo)
}

func (m *memStore) ListProperties(_ context.Context, status models.PropertyStatus) ([]models.Property, error) {
	var out []models.Property
	for _, p := range m.properties {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PropertyNo < out[j].PropertyNo })
	return out, nil
}

func (m *memStore) CreateDeed(_ context.Context, d *models.Deed) error {
	if d.IsActive {
		for id, existing := range m.deeds {
			if existing.PropertyID == d.PropertyID && existing.IsActive {
				existing.IsActive = false
				m.deeds[id] = existing
			}
		}
	}
	d.ID = m.id()
	m.deeds[d.ID] = *d
	return nil
}

func (m *memStore) ListDeeds(_ context.Context, propertyID int64, activeOnly bool) ([]models.Deed, error) {
	var out []models.Deed
	for _, d := range m.deeds {
		if d.PropertyID == propertyID && (!activeOnly || d.IsActive) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationDate.After(out[j].RegistrationDate) })
	return out, nil
}

// users

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	if _, ok := m.users[u.Email]; ok {
		return fmt.Errorf("create user: %w", models.ErrConflict)
	}
	u.ID = m.id()
	m.users[u.Email] = *u
	return nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, notFound("user", email)
	}
	return &u, nil
}
