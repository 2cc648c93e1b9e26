package warranty

// Analysis is the structured warranty data the backend extracts from the
// uploaded images. Confidence is "high", "medium", or "low".
type Analysis struct {
	Brand           string `json:"brand"`
	Model           string `json:"model"`
	SerialNumber    string `json:"serialNumber"`
	PurchaseDate    string `json:"purchaseDate"`
	WarrantyPeriod  string `json:"warrantyPeriod"`
	WarrantyEndDate string `json:"warrantyEndDate"`
	Retailer        string `json:"retailer"`
	Price           string `json:"price"`
	Confidence      string `json:"confidence"`
	AdditionalInfo  string `json:"additionalInfo,omitempty"`
	ExtractedAt     string `json:"extractedAt"`
	UserID          string `json:"userId"`
}

// envelope is the analysis endpoint's response shape. A 2xx response can
// still carry success=false; that is an application-level failure and is
// terminal.
type envelope struct {
	Success bool      `json:"success"`
	Data    *Analysis `json:"data"`
	Error   string    `json:"error"`
}

// Result is the uniform outcome of one Analyze run. Err is set exactly when
// Success is false. Uploaded records which slots were part of the request,
// independent of whether the server found usable data in each.
type Result struct {
	Success  bool
	Data     *Analysis
	Err      string
	Uploaded map[Slot]bool
}
