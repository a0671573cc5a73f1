// Package app wires the ETV dashboard together: configuration, logging,
// OpenTelemetry, the pipeline cache, services, handlers and the HTTP server.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, config.yaml and ETV_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Create the pipeline cache over the dataset and boundary files
//	4. Build the dashboard and health services on top of the cache
//	5. Set up middleware, handlers and the HTTP server
//
// Nothing is read from disk during initialization. The first pipeline build
// runs in the background once the server starts, and every later request
// reuses the memoized result until an input file changes.
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// Run blocks until SIGINT or SIGTERM and then shuts the server down
// gracefully. Errors are returned to the caller; the package never calls
// os.Exit.
package app
