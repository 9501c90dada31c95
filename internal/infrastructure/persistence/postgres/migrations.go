// Package postgres implements the PostgreSQL persistence layer for the
// Khadeira backend.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users table
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Emails are unique case-insensitively
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (LOWER(email));
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE CATALOG (COURSES, SUBJECTS, LESSONS, TESTS)
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create course catalog tables
-- Version: 002

CREATE TABLE IF NOT EXISTS courses (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    code VARCHAR(50) NOT NULL UNIQUE,
    name VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    course_id UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    duration INTEGER NOT NULL CHECK (duration >= 1),
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_subjects_course ON subjects (course_id);

CREATE TABLE IF NOT EXISTS lessons (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(200) NOT NULL,
    subject_id UUID NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_lessons_subject ON lessons (subject_id);

CREATE TABLE IF NOT EXISTS tests (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(200) NOT NULL,
    lesson_id UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tests_lesson ON tests (lesson_id);
`

const migration002Down = `
DROP TABLE IF EXISTS tests;
DROP TABLE IF EXISTS lessons;
DROP TABLE IF EXISTS subjects;
DROP TABLE IF EXISTS courses;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE LEADERBOARDS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create leaderboard tables
-- Version: 003
--
-- A leaderboard is a document: one header row per (test, subject, lesson)
-- scope plus one entry row per participant. The header carries the version
-- used for optimistic locking: the whole document is rewritten in one
-- transaction conditioned on the version it was read at.

CREATE TABLE IF NOT EXISTS leaderboards (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    test_id UUID NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
    subject_id UUID NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    lesson_id UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    best_score INTEGER NOT NULL DEFAULT 0 CHECK (best_score >= 0),
    version BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- At most one document per scope; racing creators lose here
    CONSTRAINT uq_leaderboards_scope UNIQUE (test_id, subject_id, lesson_id)
);

CREATE INDEX IF NOT EXISTS idx_leaderboards_test ON leaderboards (test_id, created_at);

CREATE TABLE IF NOT EXISTS leaderboard_entries (
    leaderboard_id UUID NOT NULL REFERENCES leaderboards(id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    score INTEGER NOT NULL CHECK (score >= 0),
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
    rank INTEGER NOT NULL CHECK (rank >= 1),

    PRIMARY KEY (leaderboard_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_entries_rank ON leaderboard_entries (leaderboard_id, rank);
`

const migration003Down = `
DROP TABLE IF EXISTS leaderboard_entries;
DROP TABLE IF EXISTS leaderboards;
`
