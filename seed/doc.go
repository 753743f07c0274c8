// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package seed loads the auction catalog from TOML and writes it into an empty
database.

A catalog lists teams, plots and policy cards:

	[[teams]]
	name = "Team A"
	passcode = "alpha"
	budget = 500000000

	[[plots]]
	number = 1
	category = "RESIDENTIAL"
	round = 1
	total_area = 13342
	actual_area = 13342
	base_price = 1500

	[[policy_cards]]
	round = 2
	question = 1
	description = "The highway is rerouted."
	target = 31
	percent = -30
	neighbors = [{ plot = 27, percent = -20 }]

Passcodes are stored only as digests. Bootstrap does nothing once any team
exists, so restarting with the same catalog is safe.
*/
package seed
