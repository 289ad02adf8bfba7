// Package testdb provisions test databases from test code.
//
// A suite provisions its database once, before any test runs, and then gives
// each test an isolated transaction that is rolled back afterwards.
//
// # Basic Usage
//
//	func TestMain(m *testing.M) {
//	    testdb.MustSetup("test")
//	    os.Exit(m.Run())
//	}
//
//	func TestWidgets(t *testing.T) {
//	    db := testdb.SetupWithT(t, "test")
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        _, err := tx.Exec("INSERT INTO widgets (name) VALUES ('sprocket')")
//	        require.NoError(t, err)
//	    })
//	}
//
// # Project Root
//
// The project root is the nearest directory at or above the working directory
// that contains config/database.yml. Set DBSETUP_ROOT to point elsewhere.
//
// # Key Functions
//
// - MustSetup(env): provisions env or panics; meant for TestMain
// - SetupWithT(t, env): provisions env once per process and returns a connection closed at cleanup
// - WithTx(t, db, fn): runs fn in a transaction that is always rolled back
// - CleanupDB(t, db): closes a connection, logging instead of failing
package testdb
