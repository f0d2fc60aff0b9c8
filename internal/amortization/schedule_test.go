package amortization_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/construction-accounting/internal/amortization"
	"github.com/Dan9191/construction-accounting/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeSchedule_TwelveMonthsNoInterest(t *testing.T) {
	schedule, err := amortization.ComputeSchedule(amortization.Terms{
		TotalAmount:          decimal.NewFromInt(12_000),
		DownPayment:          decimal.Zero,
		NumberOfInstallments: 12,
		StartDate:            date(2024, time.January, 15),
		PaymentDay:           15,
	})
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	for i, e := range schedule {
		assert.Equal(t, i+1, e.InstallmentNo)
		assert.Equal(t, date(2024, time.Month(i+1), 15), e.DueDate)
		assert.True(t, e.Amount.Equal(decimal.NewFromInt(1000)), "installment %d: got %s", e.InstallmentNo, e.Amount)
	}
}

func TestComputeSchedule_DownPaymentReducesFinancedAmount(t *testing.T) {
	schedule, err := amortization.ComputeSchedule(amortization.Terms{
		TotalAmount:          decimal.NewFromInt(15_000),
		DownPayment:          decimal.NewFromInt(3_000),
		NumberOfInstallments: 6,
		StartDate:            date(2025, time.March, 1),
		PaymentDay:           1,
	})
	require.NoError(t, err)
	require.Len(t, schedule, 6)
	assert.True(t, schedule[0].Amount.Equal(decimal.NewFromInt(2000)))
}

func TestComputeSchedule_ZeroInterestRoundingDrift(t *testing.T) {
	cases := []struct {
		total string
		n     int
	}{
		{"1000", 3},
		{"100", 7},
		{"99999.99", 36},
		{"0.05", 2},
	}
	for _, c := range cases {
		total := decimal.RequireFromString(c.total)
		schedule, err := amortization.ComputeSchedule(amortization.Terms{
			TotalAmount:          total,
			NumberOfInstallments: c.n,
			StartDate:            date(2024, time.May, 10),
			PaymentDay:           10,
		})
		require.NoError(t, err)
		require.Len(t, schedule, c.n)

		sum := decimal.Zero
		for _, e := range schedule {
			sum = sum.Add(e.Amount)
		}
		bound := decimal.NewFromFloat(0.01).Mul(decimal.NewFromInt(int64(c.n)))
		assert.True(t, sum.Sub(total).Abs().LessThanOrEqual(bound),
			"total %s over %d: sum %s drifts more than %s", total, c.n, sum, bound)
	}
}

func TestPayment_RoundsHalfUp(t *testing.T) {
	// 0.05 / 2 = 0.025 -> 0.03
	got := amortization.Payment(decimal.RequireFromString("0.05"), decimal.Zero, 2)
	assert.True(t, got.Equal(decimal.RequireFromString("0.03")), "got %s", got)

	// 1000 / 3 = 333.333... -> 333.33
	got = amortization.Payment(decimal.NewFromInt(1000), decimal.Zero, 3)
	assert.True(t, got.Equal(decimal.RequireFromString("333.33")), "got %s", got)
}

func TestComputeSchedule_WithInterestIsLevel(t *testing.T) {
	schedule, err := amortization.ComputeSchedule(amortization.Terms{
		TotalAmount:          decimal.NewFromInt(10_000),
		AnnualInterestRate:   decimal.NewFromInt(12),
		NumberOfInstallments: 12,
		StartDate:            date(2025, time.June, 1),
		PaymentDay:           1,
	})
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	// 10 000 at 1% a month over 12 months.
	expected := decimal.RequireFromString("888.49")
	for _, e := range schedule {
		assert.True(t, e.Amount.Equal(expected), "installment %d: got %s", e.InstallmentNo, e.Amount)
	}
}

func TestComputeSchedule_MortgageScalePayment(t *testing.T) {
	got := amortization.Payment(decimal.NewFromInt(100_000), decimal.NewFromInt(5), 360)
	assert.True(t, got.Sub(decimal.RequireFromString("536.82")).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")),
		"got %s", got)
}

func TestComputeSchedule_DueDates(t *testing.T) {
	t.Run("payment day 31 in a 30-day month clamps", func(t *testing.T) {
		schedule, err := amortization.ComputeSchedule(amortization.Terms{
			TotalAmount:          decimal.NewFromInt(3000),
			NumberOfInstallments: 3,
			StartDate:            date(2024, time.April, 10),
			PaymentDay:           31,
		})
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.April, 30), schedule[0].DueDate)
		assert.Equal(t, date(2024, time.May, 31), schedule[1].DueDate)
		assert.Equal(t, date(2024, time.June, 30), schedule[2].DueDate)
	})

	t.Run("January 31 advances to end of February", func(t *testing.T) {
		leap, err := amortization.ComputeSchedule(amortization.Terms{
			TotalAmount:          decimal.NewFromInt(300),
			NumberOfInstallments: 3,
			StartDate:            date(2024, time.January, 31),
			PaymentDay:           31,
		})
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.January, 31), leap[0].DueDate)
		assert.Equal(t, date(2024, time.February, 29), leap[1].DueDate)
		assert.Equal(t, date(2024, time.March, 31), leap[2].DueDate)

		common, err := amortization.ComputeSchedule(amortization.Terms{
			TotalAmount:          decimal.NewFromInt(200),
			NumberOfInstallments: 2,
			StartDate:            date(2023, time.January, 31),
			PaymentDay:           31,
		})
		require.NoError(t, err)
		assert.Equal(t, date(2023, time.February, 28), common[1].DueDate)
	})

	t.Run("payment day before start day moves to next month", func(t *testing.T) {
		schedule, err := amortization.ComputeSchedule(amortization.Terms{
			TotalAmount:          decimal.NewFromInt(200),
			NumberOfInstallments: 2,
			StartDate:            date(2024, time.December, 20),
			PaymentDay:           5,
		})
		require.NoError(t, err)
		assert.Equal(t, date(2025, time.January, 5), schedule[0].DueDate)
		assert.Equal(t, date(2025, time.February, 5), schedule[1].DueDate)
	})

	t.Run("payment day after start day stays in start month", func(t *testing.T) {
		schedule, err := amortization.ComputeSchedule(amortization.Terms{
			TotalAmount:          decimal.NewFromInt(100),
			NumberOfInstallments: 1,
			StartDate:            date(2024, time.March, 3),
			PaymentDay:           25,
		})
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.March, 25), schedule[0].DueDate)
	})
}

func TestComputeSchedule_OrderingForEveryAnchorDay(t *testing.T) {
	for day := 1; day <= 31; day++ {
		for month := time.January; month <= time.December; month++ {
			schedule, err := amortization.ComputeSchedule(amortization.Terms{
				TotalAmount:          decimal.NewFromInt(48_000),
				AnnualInterestRate:   decimal.RequireFromString("9.5"),
				NumberOfInstallments: 48,
				StartDate:            date(2023, month, 15),
				PaymentDay:           day,
			})
			require.NoError(t, err)
			require.Len(t, schedule, 48)
			for i := 1; i < len(schedule); i++ {
				require.Equal(t, schedule[i-1].InstallmentNo+1, schedule[i].InstallmentNo)
				require.True(t, schedule[i].DueDate.After(schedule[i-1].DueDate),
					"day %d start %s: %s not after %s", day, month, schedule[i].DueDate, schedule[i-1].DueDate)
			}
		}
	}
}

func TestComputeSchedule_InvalidInputs(t *testing.T) {
	valid := amortization.Terms{
		TotalAmount:          decimal.NewFromInt(1000),
		NumberOfInstallments: 10,
		StartDate:            date(2024, time.January, 1),
		PaymentDay:           1,
	}

	tests := []struct {
		name   string
		mutate func(*amortization.Terms)
	}{
		{"zero installments", func(t *amortization.Terms) { t.NumberOfInstallments = 0 }},
		{"negative installments", func(t *amortization.Terms) { t.NumberOfInstallments = -3 }},
		{"down payment exceeds total", func(t *amortization.Terms) { t.DownPayment = decimal.NewFromInt(1001) }},
		{"negative down payment", func(t *amortization.Terms) { t.DownPayment = decimal.NewFromInt(-1) }},
		{"negative rate", func(t *amortization.Terms) { t.AnnualInterestRate = decimal.NewFromInt(-2) }},
		{"payment day zero", func(t *amortization.Terms) { t.PaymentDay = 0 }},
		{"payment day 32", func(t *amortization.Terms) { t.PaymentDay = 32 }},
		{"missing start date", func(t *amortization.Terms) { t.StartDate = time.Time{} }},
		{"too many installments", func(t *amortization.Terms) { t.NumberOfInstallments = amortization.MaxInstallments + 1 }},
		{"installment count near int32 max", func(t *amortization.Terms) { t.NumberOfInstallments = 2_000_000_000 }},
		{"total above column range", func(t *amortization.Terms) { t.TotalAmount = decimal.NewFromInt(1_000_000_000_000) }},
		{"rate above column range", func(t *amortization.Terms) { t.AnnualInterestRate = decimal.NewFromInt(1000) }},
		{"installment above column range", func(t *amortization.Terms) {
			t.TotalAmount = amortization.MaxAmount
			t.AnnualInterestRate = decimal.NewFromInt(999)
			t.NumberOfInstallments = 1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := valid
			tt.mutate(&terms)
			schedule, err := amortization.ComputeSchedule(terms)
			require.ErrorIs(t, err, models.ErrInvalidInput)
			assert.Nil(t, schedule)
		})
	}
}

func TestPayment_LongTermsStayFinite(t *testing.T) {
	// (1+r)^n overflows float64 here; the payment tends to financed * r.
	got := amortization.Payment(decimal.NewFromInt(100_000), decimal.NewFromInt(12), 100_000)
	assert.Equal(t, "1000.00", got.StringFixed(2))

	got = amortization.Payment(decimal.NewFromInt(1200), decimal.RequireFromString("0.00000000000000000001"), 12)
	assert.Equal(t, "100.00", got.StringFixed(2))
}

func TestComputeSchedule_MaxInstallments(t *testing.T) {
	schedule, err := amortization.ComputeSchedule(amortization.Terms{
		TotalAmount:          decimal.NewFromInt(100_000),
		AnnualInterestRate:   decimal.NewFromInt(12),
		NumberOfInstallments: amortization.MaxInstallments,
		StartDate:            date(2024, time.January, 15),
		PaymentDay:           15,
	})
	require.NoError(t, err)
	require.Len(t, schedule, amortization.MaxInstallments)
	amount := schedule[0].Amount
	assert.True(t, amount.GreaterThan(decimal.NewFromInt(1000)), amount.String())
	assert.True(t, amount.LessThan(decimal.NewFromInt(1010)), amount.String())
	assert.Equal(t, date(2073, time.December, 15), schedule[len(schedule)-1].DueDate)
}

func TestComputeSchedule_DownPaymentEqualsTotal(t *testing.T) {
	schedule, err := amortization.ComputeSchedule(amortization.Terms{
		TotalAmount:          decimal.NewFromInt(500),
		DownPayment:          decimal.NewFromInt(500),
		NumberOfInstallments: 2,
		StartDate:            date(2024, time.January, 1),
		PaymentDay:           1,
	})
	require.NoError(t, err)
	for _, e := range schedule {
		assert.True(t, e.Amount.IsZero())
	}
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t, date(2025, time.January, 15), amortization.AddMonths(date(2024, time.December, 15), 1, 15))
	assert.Equal(t, date(2023, time.November, 30), amortization.AddMonths(date(2024, time.January, 31), -2, 31))
	assert.Equal(t, date(2022, time.December, 1), amortization.AddMonths(date(2024, time.January, 1), -13, 1))
	assert.Equal(t, date(2100, time.February, 28), amortization.AddMonths(date(2100, time.January, 31), 1, 31))
	assert.Equal(t, date(2000, time.February, 29), amortization.AddMonths(date(1999, time.November, 30), 3, 30))
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, amortization.IsLeapYear(2024))
	assert.True(t, amortization.IsLeapYear(2000))
	assert.False(t, amortization.IsLeapYear(1900))
	assert.False(t, amortization.IsLeapYear(2023))
	assert.Equal(t, 29, amortization.DaysIn(2024, time.February))
	assert.Equal(t, 28, amortization.DaysIn(2100, time.February))
	assert.Equal(t, 30, amortization.DaysIn(2024, time.September))
}
