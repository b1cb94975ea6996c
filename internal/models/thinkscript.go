package models

type ThinkScript struct {
	ID               string  `json:"id"`
	Label            string  `json:"label"`
	ShortDescription string  `json:"short_description"`
	Price            float64 `json:"price"`
	Active           bool    `json:"active"`
}

// ThinkScriptCatalogue is the storefront listing served until a products table exists
var ThinkScriptCatalogue = []ThinkScript{
	{ID: "TS001", Label: "Golden Cross Strategy", ShortDescription: "A simple moving average crossover script.", Price: 19.99, Active: true},
	{ID: "TS002", Label: "RSI Breakout Alert", ShortDescription: "Alerts when RSI crosses 70 or 30.", Price: 9.99, Active: false},
}
