// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the persistence adapter for the auction engine.

Reads go straight to the database. Every mutation goes through RunInTx,
which hands the callback a Writer bound to a single transaction:

	err := st.RunInTx(ctx, func(w store.Writer) error {
		if err := w.InsertBid(ctx, bid); err != nil {
			return err
		}
		return w.UpdatePlot(ctx, plot)
	})

A non-nil error from the callback rolls the whole batch back.

Queries use $N placeholders, each referenced once and in order, so the
same text runs on SQLite and PostgreSQL.
*/
package store
