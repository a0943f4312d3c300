package catalog

import "github.com/shopspring/decimal"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Fixtures is the demo storefront catalog. It seeds an empty database and
// backs the test stub.
func Fixtures() []Product {
	return []Product{
		{
			ID: "prod-ibuprofen-200", Name: "Ibuprofen", Manufacturer: "Advil",
			Category: "pain-relief", Strength: "200mg", Form: "tablet",
			Description: "Fast relief from headaches, muscle aches and fever.",
			Price:       d("12.99"), OriginalPrice: d("14.99"), StockQuantity: 150, Rating: 4.6,
			ImageURL: "/images/products/ibuprofen.jpg",
		},
		{
			ID: "prod-acetaminophen-500", Name: "Acetaminophen Extra Strength", Manufacturer: "Tylenol",
			Category: "pain-relief", Strength: "500mg", Form: "caplet",
			Description: "Pain reliever and fever reducer.",
			Price:       d("9.49"), OriginalPrice: d("9.49"), StockQuantity: 200, Rating: 4.5,
			ImageURL: "/images/products/acetaminophen.jpg",
		},
		{
			ID: "prod-vitamin-d3", Name: "Vitamin D3", Manufacturer: "Nature Made",
			Category: "vitamins", Strength: "1000 IU", Form: "softgel",
			Description: "Supports bone, teeth and immune health.",
			Price:       d("8.49"), OriginalPrice: d("10.99"), StockQuantity: 320, Rating: 4.8,
			ImageURL: "/images/products/vitamin-d3.jpg",
		},
		{
			ID: "prod-multivitamin", Name: "Daily Multivitamin", Manufacturer: "Centrum",
			Category: "vitamins", Form: "tablet",
			Description: "Complete multivitamin for adults.",
			Price:       d("16.99"), OriginalPrice: d("19.99"), StockQuantity: 90, Rating: 4.4,
			ImageURL: "/images/products/multivitamin.jpg",
		},
		{
			ID: "prod-amoxicillin-500", Name: "Amoxicillin", Manufacturer: "Sandoz",
			Category: "antibiotics", Strength: "500mg", Form: "capsule",
			Description: "Penicillin-class antibiotic for bacterial infections.",
			Price:       d("15.00"), OriginalPrice: d("15.00"), PrescriptionRequired: true, StockQuantity: 60, Rating: 4.3,
			ImageURL: "/images/products/amoxicillin.jpg",
		},
		{
			ID: "prod-lisinopril-10", Name: "Lisinopril", Manufacturer: "Lupin",
			Category: "heart-health", Strength: "10mg", Form: "tablet",
			Description: "ACE inhibitor used to treat high blood pressure.",
			Price:       d("11.25"), OriginalPrice: d("13.00"), PrescriptionRequired: true, StockQuantity: 75, Rating: 4.2,
			ImageURL: "/images/products/lisinopril.jpg",
		},
		{
			ID: "prod-metformin-500", Name: "Metformin", Manufacturer: "Teva",
			Category: "diabetes", Strength: "500mg", Form: "tablet",
			Description: "First-line medication for type 2 diabetes.",
			Price:       d("7.80"), OriginalPrice: d("7.80"), PrescriptionRequired: true, StockQuantity: 0, Rating: 4.1,
			ImageURL: "/images/products/metformin.jpg",
		},
		{
			ID: "prod-cetirizine-10", Name: "Cetirizine", Manufacturer: "Zyrtec",
			Category: "allergy", Strength: "10mg", Form: "tablet",
			Description: "24 hour allergy relief.",
			Price:       d("18.99"), OriginalPrice: d("22.49"), StockQuantity: 110, Rating: 4.7,
			ImageURL: "/images/products/cetirizine.jpg",
		},
		{
			ID: "prod-saline-spray", Name: "Saline Nasal Spray", Manufacturer: "Ocean",
			Category: "cold-flu", Form: "spray",
			Description: "Gentle saline mist for dry nasal passages.",
			Price:       d("5.49"), OriginalPrice: d("5.49"), StockQuantity: 140, Rating: 4.0,
			ImageURL: "/images/products/saline.jpg",
		},
		{
			ID: "prod-bp-monitor", Name: "Blood Pressure Monitor", Manufacturer: "Omron",
			Category: "devices", Form: "device",
			Description: "Upper arm monitor with memory for two users.",
			Price:       d("54.99"), OriginalPrice: d("69.99"), StockQuantity: 25, Rating: 4.6,
			ImageURL: "/images/products/bp-monitor.jpg",
		},
		{
			ID: "prod-thermometer", Name: "Digital Thermometer", Manufacturer: "Braun",
			Category: "devices", Form: "device",
			Description: "Reads in 8 seconds with fever indicator.",
			Price:       d("24.95"), OriginalPrice: d("29.95"), StockQuantity: 40, Rating: 4.5,
			ImageURL: "/images/products/thermometer.jpg",
		},
		{
			ID: "prod-omeprazole-20", Name: "Omeprazole", Manufacturer: "Prilosec",
			Category: "digestive", Strength: "20mg", Form: "capsule",
			Description: "Treats frequent heartburn.",
			Price:       d("21.49"), OriginalPrice: d("24.99"), StockQuantity: 85, Rating: 4.4,
			ImageURL: "/images/products/omeprazole.jpg",
		},
		{
			ID: "prod-atorvastatin-20", Name: "Atorvastatin", Manufacturer: "Pfizer",
			Category: "heart-health", Strength: "20mg", Form: "tablet",
			Description: "Lowers cholesterol and reduces cardiovascular risk.",
			Price:       d("19.50"), OriginalPrice: d("19.50"), PrescriptionRequired: true, StockQuantity: 55, Rating: 4.3,
			ImageURL: "/images/products/atorvastatin.jpg",
		},
	}
}
