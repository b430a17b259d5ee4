// Package dbarts implements Bayesian Additive Regression Trees: an ensemble
// of shallow regression trees fit by Metropolis-Hastings MCMC over tree
// topology, with closed-form or linear-regression leaf parameters and a
// scaled-inverse-chi-squared residual-variance prior.
//
// # Quick Start
//
// Fit a regression model:
//
//	data := dbarts.Data{Y: y, X: x}
//	model := dbarts.DefaultModel()
//	control := dbarts.DefaultControl()
//	fit, err := dbarts.CreateFit(control, model, data)
//	results, err := fit.RunSampler()
//
// Fit a binary classifier via probit latent-variable augmentation:
//
//	control.ResponseIsBinary = true
//	fit, err := dbarts.CreateFit(control, model, data) // y values must be 0 or 1
//	results, err := fit.RunSampler()
//
// # Loading Data
//
// Load a headerless CSV file whose first column is the response:
//
//	data, err := dbarts.LoadCSV("data.csv")
//
// # Persistence
//
// Save and load a fit's ensemble and working state:
//
//	fit.SaveToFile("fit.bart")
//	loaded, err := dbarts.LoadFromFile("fit.bart")
package dbarts
