package domain

// ConversionStatus represents conversion request processing status
type ConversionStatus string

const (
	ConversionStatusPending  ConversionStatus = "pending"
	ConversionStatusApproved ConversionStatus = "approved"
	ConversionStatusRejected ConversionStatus = "rejected"
)

// Conversion is a request to exchange DRX for an external reward package.
// Amount is debited from the balance when the request is created and refunded on rejection.
type Conversion struct {
	ID              string            `db:"id" json:"id"`
	UserID          int64             `db:"user_id" json:"userId"`
	FromCurrency    string            `db:"from_currency" json:"fromCurrency"`
	ToCurrency      string            `db:"to_currency" json:"toCurrency"`
	Amount          float64           `db:"amount" json:"amount"`
	ConvertedAmount float64           `db:"converted_amount" json:"convertedAmount"`
	Category        string            `db:"category" json:"category"`
	PackageType     string            `db:"package_type" json:"packageType"`
	RequiredInfo    map[string]string `db:"required_info" json:"requiredInfo"`
	Status          ConversionStatus  `db:"status" json:"status"`
	RequestedAt     int64             `db:"requested_at" json:"requestedAt"`
	CompletedAt     int64             `db:"completed_at" json:"completedAt,omitempty"`
}
