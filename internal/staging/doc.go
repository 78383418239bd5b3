// Package staging owns the scratch area under paths.staging_dir: per-job
// working directories and the janitor sweep that removes abandoned ones.
package staging
