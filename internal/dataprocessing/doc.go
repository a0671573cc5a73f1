// Package dataprocessing loads the ETV intervention file into a cleaned
// dataset and aggregates it per municipality.
//
// The input is a `;`-separated table, Latin-1 encoded by default, carrying
// an area code column (divipola) or, in the simpler layout, only a
// municipality name column (mun), plus the fifteen raw numeric counters.
//
// # Cleaning
//
// Clean applies, in order:
//
//  1. mode detection (coded when the area code column exists, name-only otherwise)
//  2. area code normalization to five zero-padded characters
//  3. blanket fill of empty cells with "0"
//  4. numeric coercion where unparseable, negative or non-finite values become 0
//  5. recomputation of int_tot, pob_imp and pob_tot
//
// Cell-level problems are corrections counted in Dataset.Quality, never
// errors. File-level problems (missing file, bad encoding, ragged rows,
// missing columns) are DataSourceErrors.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(dataprocessing.DefaultLoaderOptions(), logger)
//	ds, err := loader.Load(ctx, "data/data_cor.csv")
//	if err != nil {
//	    return err
//	}
//	totals := dataprocessing.Aggregate(ds)
package dataprocessing
