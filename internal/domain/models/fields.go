package models

// Identity and dimension fields shared by every record type.
const (
	FieldBranch  = "branch"
	FieldDate    = "date"
	FieldComment = "comment"
)

// Truck record fields.
const (
	FieldAGO         = "ago"
	FieldPMS         = "pms"
	FieldDriver      = "driver"
	FieldDestination = "destination"
	FieldTruckNumber = "truck_number"
)

// Stock-summary record fields.
const (
	FieldTotalAGO = "total_ago"
	FieldTotalPMS = "total_pms"
	FieldYear     = "year"
)

// Column is one exported column: the record field and its display header.
// Derive, when set, computes the value instead of reading Key.
type Column struct {
	Key    string
	Header string
	Derive func(Record) Value
}

// Value returns the column's value for rec.
func (c Column) Value(rec Record) Value {
	if c.Derive != nil {
		return c.Derive(rec)
	}
	return rec.Get(c.Key)
}

// SalesColumns is the export layout of the daily sales table.
var SalesColumns = []Column{
	{Key: "date", Header: "Date"},
	{Key: "branch", Header: "Branch"},
	{Key: "opening_meter_reading_ago", Header: "Opening Meter AGO"},
	{Key: "closing_meter_reading_ago", Header: "Closing Meter AGO"},
	{Key: "opening_meter_reading_pms", Header: "Opening Meter PMS"},
	{Key: "closing_meter_reading_pms", Header: "Closing Meter PMS"},
	{Key: "opening_tank_reading_ago", Header: "Opening Tank AGO"},
	{Key: "closing_tank_reading_ago", Header: "Closing Tank AGO"},
	{Key: "opening_tank_reading_pms", Header: "Opening Tank PMS"},
	{Key: "closing_tank_reading_pms", Header: "Closing Tank PMS"},
	{Key: "pump_test_ago", Header: "Pump Test AGO"},
	{Key: "pump_test_pms", Header: "Pump Test PMS"},
	{Key: "total_pump_test", Header: "Total Pump Test"},
	{Key: "received_ago", Header: "Received AGO"},
	{Key: "received_pms", Header: "Received PMS"},
	{Key: "total_received", Header: "Total Received"},
	{Key: "sales_ago", Header: "Sales AGO"},
	{Key: "sales_pms", Header: "Sales PMS"},
	{Key: "total_sales", Header: "Total Sales"},
	{Key: "actuals_ago", Header: "Actuals AGO"},
	{Key: "actuals_pms", Header: "Actuals PMS"},
	{Key: "total_actuals", Header: "Total Actuals"},
	{Key: "variation_ago", Header: "Variation AGO"},
	{Key: "variation_pms", Header: "Variation PMS"},
	{Key: "total_variation", Header: "Total Variation"},
	{Key: "unit_price_ago", Header: "Unit Price AGO"},
	{Key: "unit_price_pms", Header: "Unit Price PMS"},
	{Key: "sales_in_cedis_ago", Header: "Sales in Cedis AGO"},
	{Key: "sales_in_cedis_pms", Header: "Sales in Cedis PMS"},
	{Key: "total_sales_in_cedis", Header: "Total Sales in Cedis"},
	{Key: "actuals_in_cedis_ago", Header: "Actuals in Cedis AGO"},
	{Key: "actuals_in_cedis_pms", Header: "Actuals in Cedis PMS"},
	{Key: "total_actuals_in_cedis", Header: "Total Actuals in Cedis"},
	{Key: "variation_in_cedis_ago", Header: "Variation in Cedis AGO"},
	{Key: "variation_in_cedis_pms", Header: "Variation in Cedis PMS"},
	{Key: "total_variation_in_cedis", Header: "Total Variation in Cedis"},
	{Key: "collections_cash", Header: "Collections Cash"},
	{Key: "collections_cheque", Header: "Collections Cheque"},
	{Key: "total_collections", Header: "Total Collections"},
	{Key: "credit_ago", Header: "Credit AGO"},
	{Key: "credit_pms", Header: "Credit PMS"},
	{Key: "total_credit", Header: "Total Credit"},
	{Key: "expenditure", Header: "Expenditure"},
	{Key: "comment", Header: "Comment"},
	{Key: "net_sales", Header: "Net Sales"},
}

// TruckColumns is the export layout of the truck deliveries table.
var TruckColumns = []Column{
	{Key: FieldDate, Header: "Date"},
	{Key: FieldBranch, Header: "Branch"},
	{Key: FieldTruckNumber, Header: "Truck Number"},
	{Key: FieldDriver, Header: "Driver"},
	{Key: FieldDestination, Header: "Destination"},
	{Key: FieldAGO, Header: "AGO"},
	{Key: FieldPMS, Header: "PMS"},
	{Key: "total", Header: "Total", Derive: truckTotal},
}

// StockColumns is the export layout of the yearly stock summary.
var StockColumns = []Column{
	{Key: FieldBranch, Header: "Branch"},
	{Key: FieldTotalAGO, Header: "AGO"},
	{Key: FieldTotalPMS, Header: "PMS"},
	{Key: FieldYear, Header: "Year"},
}

// truckTotal is the combined fuel volume of a trip, absent when neither
// product volume is numeric.
func truckTotal(rec Record) Value {
	ago, pms := rec.Get(FieldAGO), rec.Get(FieldPMS)
	if !ago.IsNumber() && !pms.IsNumber() {
		return Missing()
	}
	return Number(ago.Float() + pms.Float())
}
