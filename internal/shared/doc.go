// Package shared holds helpers used across packages that belong to no
// single layer. Its testutil subpackage provides log capture and dataset
// fixtures for tests:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteDataset(t, t.TempDir(), testutil.DatasetRow{AreaCode: "23001", Name: "MONTERÍA"})
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "loaded")
//	}
package shared
