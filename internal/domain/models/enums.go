package models

// VaccinationStatus is a plain state value; transitions are not modeled.
type VaccinationStatus string

const (
	VaccinationScheduled VaccinationStatus = "Scheduled"
	VaccinationCompleted VaccinationStatus = "Completed"
	VaccinationCancelled VaccinationStatus = "Cancelled"
	VaccinationPostponed VaccinationStatus = "Postponed"
)

func (s VaccinationStatus) Valid() bool {
	switch s {
	case VaccinationScheduled, VaccinationCompleted, VaccinationCancelled, VaccinationPostponed:
		return true
	}
	return false
}

// WorkerStatus is the employment state of a worker.
type WorkerStatus string

const (
	WorkerActive     WorkerStatus = "Active"
	WorkerInactive   WorkerStatus = "Inactive"
	WorkerOnLeave    WorkerStatus = "On Leave"
	WorkerTerminated WorkerStatus = "Terminated"
)

func (s WorkerStatus) Valid() bool {
	switch s {
	case WorkerActive, WorkerInactive, WorkerOnLeave, WorkerTerminated:
		return true
	}
	return false
}

// ExpenseCategory groups expenses for reporting.
type ExpenseCategory string

const (
	CategoryFeed        ExpenseCategory = "Feed"
	CategoryMedicine    ExpenseCategory = "Medicine"
	CategoryElectricity ExpenseCategory = "Electricity"
	CategoryWater       ExpenseCategory = "Water"
	CategoryFuel        ExpenseCategory = "Fuel"
	CategoryEquipment   ExpenseCategory = "Equipment"
	CategoryLabor       ExpenseCategory = "Labor"
	CategoryTransport   ExpenseCategory = "Transport"
	CategoryMaintenance ExpenseCategory = "Maintenance"
	CategoryOther       ExpenseCategory = "Other"
)

// ExpenseCategories lists every category in display order.
var ExpenseCategories = []ExpenseCategory{
	CategoryFeed, CategoryMedicine, CategoryElectricity, CategoryWater, CategoryFuel,
	CategoryEquipment, CategoryLabor, CategoryTransport, CategoryMaintenance, CategoryOther,
}

func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// PaymentMethod records how an expense was settled.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "Cash"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
	PaymentCheque       PaymentMethod = "Cheque"
	PaymentUPI          PaymentMethod = "UPI"
	PaymentCreditCard   PaymentMethod = "Credit Card"
	PaymentOther        PaymentMethod = "Other"
)

// PaymentMethods lists every payment method in display order.
var PaymentMethods = []PaymentMethod{
	PaymentCash, PaymentBankTransfer, PaymentCheque, PaymentUPI, PaymentCreditCard, PaymentOther,
}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// VaccineTypes are the common vaccines offered for selection. Other names are accepted.
var VaccineTypes = []string{
	"Newcastle Disease", "Marek Disease", "Infectious Bronchitis", "Gumboro Disease",
	"Fowl Pox", "Avian Influenza", "Other",
}

// WorkerRoles are the roles offered for selection. Other roles are accepted.
var WorkerRoles = []string{
	"Farm Manager", "Feeder", "Cleaner", "Vaccinator", "Driver", "Maintenance", "Other",
}
