package mysql

// seq preserves insertion order; id is the public review identifier.
const createReviewsSQL = `
CREATE TABLE IF NOT EXISTS peer_reviews (
  seq           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  id            VARCHAR(64)     NOT NULL,
  created_at    DATETIME(6)     NOT NULL,
  employee_id   VARCHAR(64)     NOT NULL,
  employee_name VARCHAR(255)    NOT NULL,
  session_token VARCHAR(16)     NULL,
  ratings       JSON            NOT NULL,
  comment       TEXT            NULL,
  PRIMARY KEY (seq),
  UNIQUE KEY uq_peer_reviews_id (id),
  KEY ix_peer_reviews_token (session_token),
  KEY ix_peer_reviews_employee (employee_name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

// Plain INSERT: a duplicate id is an error, never an overwrite.
const insertReviewSQL = `
INSERT INTO peer_reviews
  (id, created_at, employee_id, employee_name, session_token, ratings, comment)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

const listReviewsSQL = `
SELECT
  id,
  created_at,
  employee_id,
  employee_name,
  session_token,
  ratings,
  comment
FROM peer_reviews
ORDER BY seq
`

const countByTokenSQL = `SELECT COUNT(*) FROM peer_reviews WHERE session_token = ?`
