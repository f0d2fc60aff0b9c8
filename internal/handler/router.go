package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// PublicPaths are served without a bearer token
var PublicPaths = []string{"/register", "/login", "/healthz", "/metrics"}

// NewRouter wires every route. auth guards all paths except PublicPaths.
func NewRouter(h *Handler, auth func(http.Handler) http.Handler, metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(auth)

	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")
	r.Handle("/metrics", metrics).Methods("GET")

	// Payment plans and installments
	r.HandleFunc("/plans/preview", h.PreviewSchedule).Methods("POST")
	r.HandleFunc("/plans", h.CreatePlan).Methods("POST")
	r.HandleFunc("/plans/{id:[0-9]+}", h.GetPlan).Methods("GET")
	r.HandleFunc("/plans/{id:[0-9]+}", h.UpdatePlan).Methods("PATCH")
	r.HandleFunc("/plans/{id:[0-9]+}/summary", h.PlanSummary).Methods("GET")
	r.HandleFunc("/plans/{id:[0-9]+}/remaining", h.RemainingBalance).Methods("GET")
	r.HandleFunc("/plans/{id:[0-9]+}/schedule.xml", h.ScheduleXML).Methods("GET")
	r.HandleFunc("/installments/late", h.ListLate).Methods("GET")
	r.HandleFunc("/installments/upcoming", h.ListUpcoming).Methods("GET")
	r.HandleFunc("/installments/{id:[0-9]+}/pay", h.RecordPayment).Methods("POST")
	r.HandleFunc("/installments/{id:[0-9]+}/cancel", h.CancelPayment).Methods("POST")
	r.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	r.HandleFunc("/notifications/{id:[0-9]+}/read", h.MarkNotificationRead).Methods("POST")

	// Customers
	r.HandleFunc("/customers", h.CreateCustomer).Methods("POST")
	r.HandleFunc("/customers", h.ListCustomers).Methods("GET")
	r.HandleFunc("/customers/{id:[0-9]+}", h.GetCustomer).Methods("GET")
	r.HandleFunc("/customers/{id:[0-9]+}", h.UpdateCustomer).Methods("PATCH")
	r.HandleFunc("/customers/{id:[0-9]+}", h.DeleteCustomer).Methods("DELETE")
	r.HandleFunc("/customers/{id:[0-9]+}/plans", h.ListCustomerPlans).Methods("GET")
	r.HandleFunc("/customers/{id:[0-9]+}/transactions", h.AddCustomerTransaction).Methods("POST")
	r.HandleFunc("/customers/{id:[0-9]+}/transactions", h.ListCustomerTransactions).Methods("GET")
	r.HandleFunc("/customers/{id:[0-9]+}/balance", h.CustomerBalance).Methods("GET")

	// Cheques
	r.HandleFunc("/cheques", h.CreateCheque).Methods("POST")
	r.HandleFunc("/cheques", h.ListCheques).Methods("GET")
	r.HandleFunc("/cheques/due", h.ListDueCheques).Methods("GET")
	r.HandleFunc("/cheques/{id:[0-9]+}", h.GetCheque).Methods("GET")
	r.HandleFunc("/cheques/{id:[0-9]+}", h.UpdateCheque).Methods("PATCH")
	r.HandleFunc("/cheques/{id:[0-9]+}/status", h.UpdateChequeStatus).Methods("POST")
	r.HandleFunc("/cheques/{id:[0-9]+}/notes", h.AddChequeNote).Methods("POST")
	r.HandleFunc("/cheques/{id:[0-9]+}/transactions", h.ListChequeTransactions).Methods("GET")

	// Employees
	r.HandleFunc("/employees", h.CreateEmployee).Methods("POST")
	r.HandleFunc("/employees", h.ListEmployees).Methods("GET")
	r.HandleFunc("/employees/by-no/{no}", h.GetEmployeeByNo).Methods("GET")
	r.HandleFunc("/employees/{id:[0-9]+}", h.GetEmployee).Methods("GET")
	r.HandleFunc("/employees/{id:[0-9]+}", h.UpdateEmployee).Methods("PATCH")
	r.HandleFunc("/employees/{id:[0-9]+}", h.DeleteEmployee).Methods("DELETE")
	r.HandleFunc("/employees/{id:[0-9]+}/attendance", h.RecordAttendance).Methods("POST")
	r.HandleFunc("/employees/{id:[0-9]+}/attendance", h.ListAttendance).Methods("GET")
	r.HandleFunc("/employees/{id:[0-9]+}/payroll", h.Payroll).Methods("GET")
	r.HandleFunc("/attendance/{id:[0-9]+}", h.UpdateAttendance).Methods("PATCH")

	// Properties
	r.HandleFunc("/properties", h.CreateProperty).Methods("POST")
	r.HandleFunc("/properties", h.ListProperties).Methods("GET")
	r.HandleFunc("/properties/by-no/{no}", h.GetPropertyByNo).Methods("GET")
	r.HandleFunc("/properties/{id:[0-9]+}", h.GetProperty).Methods("GET")
	r.HandleFunc("/properties/{id:[0-9]+}", h.UpdateProperty).Methods("PATCH")
	r.HandleFunc("/properties/{id:[0-9]+}", h.DeleteProperty).Methods("DELETE")
	r.HandleFunc("/properties/{id:[0-9]+}/deeds", h.CreateDeed).Methods("POST")
	r.HandleFunc("/properties/{id:[0-9]+}/deeds", h.ListDeeds).Methods("GET")
	r.HandleFunc("/properties/{id:[0-9]+}/value-history", h.ValueHistory).Methods("GET")

	return r
}
