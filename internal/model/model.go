package model

// Package model contains domain models/data structures.
// Pure data types shared across layers; no business logic here.
