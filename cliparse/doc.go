/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: server listen port (default: 4580)
  - DatabaseType: sqlite (default) or postgres
  - DatabaseURL: sqlite file path or postgres connection string
  - UnitsFile: unit roster JSON (default: data/units.json)
  - AgendaFile: agenda definition JSON (default: data/assembly_items.json)
  - AdminPassword: bearer token for admin/operator routes (required)

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	UNITS_FILE     → -units
	AGENDA_FILE    → -agenda
	ADMIN_PASSWORD → -admin-password

CLI flags take precedence over environment variables. main loads a .env
file first (godotenv), so a local .env feeds the same fallbacks.
*/
package cliparse
