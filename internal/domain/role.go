package domain

// Operator role for the diagnostic endpoints.
const RoleOperator = "operator"
