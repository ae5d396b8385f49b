package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses the duration knobs of the booking core
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The four durations at the bottom are the
// fixed contract of the booking core: how long an admitted session lives,
// how long a seat hold lasts, the trailing ranking window, and how often
// the background sweeps run.
type Config struct {
    Env          string // application environment (e.g. "dev", "prod")
    Port         string // HTTP port to listen on
    DBUser       string // database username
    DBPass       string // database password (optional)
    DBHost       string // database host address
    DBPort       string // database port number
    DBName       string // database name
    JWTSecret    string // secret used to sign JWTs
    AccessTTLMin int    // access token time-to-live in minutes
    BcryptCost   int    // bcrypt cost for password hashing

    ActiveSessionTTL   time.Duration // lifetime of an ACTIVE queue token
    SeatHoldTTL        time.Duration // lifetime of a temporary seat hold
    RankingWindow      time.Duration // trailing window for sale velocity
    SweepInterval      time.Duration // period of the background sweeps
    AdmissionBatchSize int           // tokens promoted per activation cycle
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The core durations
// have defaults and only need to be set to deviate from them.
func Load() Config {
    return Config{
        Env:          must("APP_ENV"),
        Port:         must("APP_PORT"),
        DBUser:       must("DB_USER"),
        DBPass:       os.Getenv("DB_PASS"), // empty allowed
        DBHost:       must("DB_HOST"),
        DBPort:       must("DB_PORT"),
        DBName:       must("DB_NAME"),
        JWTSecret:    must("JWT_SECRET"),
        AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
        BcryptCost:   mustInt("BCRYPT_COST"),

        ActiveSessionTTL:   envDur("ACTIVE_SESSION_TTL", time.Hour),
        SeatHoldTTL:        envDur("SEAT_HOLD_TTL", 5*time.Minute),
        RankingWindow:      envDur("RANKING_WINDOW", 30*time.Minute),
        SweepInterval:      envDur("SWEEP_INTERVAL", time.Minute),
        AdmissionBatchSize: envInt("ADMISSION_BATCH_SIZE", 100),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
