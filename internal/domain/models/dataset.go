package models

import (
	"fmt"
	"strconv"
)

// Dataset names one of the record sets served by the station API.
type Dataset string

const (
	DatasetSales  Dataset = "sales"
	DatasetTrucks Dataset = "trucks"
	DatasetStock  Dataset = "stock"
)

// Datasets lists all datasets.
var Datasets = []Dataset{DatasetSales, DatasetTrucks, DatasetStock}

// ParseDataset validates a dataset name.
func ParseDataset(name string) (Dataset, error) {
	switch Dataset(name) {
	case DatasetSales, DatasetTrucks, DatasetStock:
		return Dataset(name), nil
	default:
		return "", fmt.Errorf("unknown dataset %q", name)
	}
}

// Columns returns the export layout of the dataset.
func (d Dataset) Columns() []Column {
	switch d {
	case DatasetTrucks:
		return TruckColumns
	case DatasetStock:
		return StockColumns
	default:
		return SalesColumns
	}
}

// FilePrefix returns the export filename prefix of the dataset.
func (d Dataset) FilePrefix() string {
	switch d {
	case DatasetTrucks:
		return "truck_data"
	case DatasetStock:
		return "stock_summary"
	default:
		return "sales_data"
	}
}

// Query narrows a fetch server-side. Month and Day are ignored by endpoints
// that only accept a year.
type Query struct {
	Year  string `json:"year"`
	Month string `json:"month,omitempty"`
	Day   string `json:"day,omitempty"`
}

// CurrentYear returns a query for the given year only.
func CurrentYear(year int) Query {
	return Query{Year: strconv.Itoa(year)}
}

// HasYear reports whether Year is a complete four-digit year.
func (q Query) HasYear() bool {
	if len(q.Year) != 4 {
		return false
	}
	for i := 0; i < len(q.Year); i++ {
		if q.Year[i] < '0' || q.Year[i] > '9' {
			return false
		}
	}
	return true
}

// Key returns a stable identifier for the query.
func (q Query) Key() string {
	return q.Year + ":" + q.Month + ":" + q.Day
}
